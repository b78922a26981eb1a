package psd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// rawPayload appends a raw-compressed payload with the given body and
// returns its declared length.
func rawPayload(w *builder, body []byte) uint32 {
	w.u16(uint16(CompressionRaw))
	w.raw(body)
	return uint32(2 + len(body))
}

// twoLayerDoc builds a complete document: layer 1 with three channels using
// ch1Tag (raw area bodies), layer 2 with one RLE channel. trailer is
// appended inside the layer-and-mask section after the payloads.
func twoLayerDoc(ch1Tag Compression, trailer []byte) []byte {
	// Layer 1: 2x2, three channels, 4-byte bodies.
	ch1 := []ChannelInfo{{ID: 0, Length: 6}, {ID: 1, Length: 6}, {ID: 2, Length: 6}}
	// Layer 2: 2x2, one RLE channel: 2 line counts + 2 one-byte lines.
	ch2 := []ChannelInfo{{ID: 0, Length: 8}}

	var info builder
	info.i16(2)

	info.layerRecordHeader(Rect{Bottom: 2, Right: 2}, ch1, "norm")
	var extra1 builder
	extra1.emptyMaskAndRanges(len(ch1))
	extra1.pascalName4("bg")
	info.u32(uint32(extra1.len()))
	info.raw(extra1.b)

	info.layerRecordHeader(Rect{Bottom: 2, Right: 2}, ch2, "mul ")
	var extra2 builder
	extra2.emptyMaskAndRanges(len(ch2))
	extra2.pascalName4("fg")
	info.u32(uint32(extra2.len()))
	info.raw(extra2.b)

	for i := 0; i < 3; i++ {
		info.u16(uint16(ch1Tag))
		info.raw([]byte{byte(i + 1), byte(i + 1), byte(i + 1), byte(i + 1)})
	}
	info.u16(uint16(CompressionRLE))
	info.u16(1)
	info.u16(1)
	info.u8(0xaa)
	info.u8(0xbb)

	var w builder
	w.header(3, 2, 2, 8, ModeRGB)
	w.u32(0) // color mode data
	res := resourceBlock(func(b *builder) { b.resource(1036, "", []byte{9, 9}) })
	w.raw(res)
	w.u32(uint32(4 + info.len() + len(trailer)))
	w.u32(uint32(info.len()))
	w.raw(info.b)
	w.raw(trailer)
	return w.b
}

func TestDecodeEndToEnd(t *testing.T) {
	t.Parallel()

	doc, err := Decode(twoLayerDoc(CompressionRaw, nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Header.Width != 2 || doc.Header.ColorMode != ModeRGB {
		t.Fatalf("header mismatch: %+v", doc.Header)
	}
	if len(doc.Resources) != 1 || doc.Resources[0].ID != 1036 {
		t.Fatalf("resources mismatch: %+v", doc.Resources)
	}
	if len(doc.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(doc.Layers))
	}
	if doc.Layers[0].Name != "bg" || doc.Layers[1].Name != "fg" {
		t.Fatalf("layer names: %q, %q", doc.Layers[0].Name, doc.Layers[1].Name)
	}
	if doc.MergedAlpha {
		t.Fatalf("merged alpha set for positive layer count")
	}

	// One payload per channel, layer order then channel-table order.
	if len(doc.Channels) != 4 {
		t.Fatalf("got %d payloads, want 4", len(doc.Channels))
	}
	for i := 0; i < 3; i++ {
		p := doc.Channels[i]
		if p.Compression != CompressionRaw || p.Data[0] != byte(i+1) {
			t.Fatalf("payload %d out of order: %+v", i, p)
		}
	}
	if doc.Channels[3].Compression != CompressionRLE {
		t.Fatalf("payload 3: %+v", doc.Channels[3])
	}
	if lines := doc.Channels[3].Lines; len(lines) != 2 || lines[0][0] != 0xaa || lines[1][0] != 0xbb {
		t.Fatalf("rle lines mismatch: %v", doc.Channels[3].Lines)
	}

	if got := doc.LayerPayloads(1); len(got) != 1 || got[0].Compression != CompressionRLE {
		t.Fatalf("LayerPayloads(1): %+v", got)
	}
}

func TestDecodeBadSignatureFailsAtOffsetZero(t *testing.T) {
	t.Parallel()

	data := twoLayerDoc(CompressionRaw, nil)
	data[0] = 'Z'
	_, err := Decode(data)
	if !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("got %v, want ErrMalformedSignature", err)
	}
}

func TestDecodeUnknownCompressionContinues(t *testing.T) {
	t.Parallel()

	doc, err := Decode(twoLayerDoc(Compression(99), nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Channels) != 4 {
		t.Fatalf("got %d payloads, want 4", len(doc.Channels))
	}
	for i := 0; i < 3; i++ {
		if !doc.Channels[i].Unsupported {
			t.Fatalf("payload %d not flagged unsupported", i)
		}
		if len(doc.Channels[i].Data) != 4 {
			t.Fatalf("payload %d body mis-framed: %d bytes", i, len(doc.Channels[i].Data))
		}
	}
	// Framing stays aligned: the following RLE channel decodes normally.
	if doc.Channels[3].Unsupported || len(doc.Channels[3].Lines) != 2 {
		t.Fatalf("payload after unknown tags mis-framed: %+v", doc.Channels[3])
	}
}

func TestDecodeSectionTrailerSkipped(t *testing.T) {
	t.Parallel()

	// Global mask info (or any trailing sub-section) inside the declared
	// layer-and-mask length is skipped by the boundary seek.
	doc, err := Decode(twoLayerDoc(CompressionRaw, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Layers) != 2 || len(doc.Channels) != 4 {
		t.Fatalf("trailer disturbed decode: %d layers, %d payloads", len(doc.Layers), len(doc.Channels))
	}
}

func TestDecodeMergedAlpha(t *testing.T) {
	t.Parallel()

	var info builder
	info.i16(-1)
	ch := []ChannelInfo{{ID: 0, Length: 3}}
	info.layerRecordHeader(Rect{Bottom: 1, Right: 1}, ch, "norm")
	info.u32(0)
	info.u16(uint16(CompressionRaw))
	info.u8(0x7f)

	var w builder
	w.header(1, 1, 1, 8, ModeGrayscale)
	w.u32(0)
	w.u32(0)
	w.u32(uint32(4 + info.len()))
	w.u32(uint32(info.len()))
	w.raw(info.b)

	doc, err := Decode(w.b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !doc.MergedAlpha {
		t.Fatalf("negative layer count did not set MergedAlpha")
	}
	if len(doc.Layers) != 1 {
		t.Fatalf("got %d layers, want 1", len(doc.Layers))
	}
}

func TestDecodeEmptyLayerSection(t *testing.T) {
	t.Parallel()

	var w builder
	w.header(1, 1, 1, 8, ModeGrayscale)
	w.u32(0)
	w.u32(0)
	w.u32(0) // empty layer-and-mask section

	doc, err := Decode(w.b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Layers) != 0 || len(doc.Channels) != 0 {
		t.Fatalf("empty section produced layers: %+v", doc)
	}
}

func TestDecodeColorModeData(t *testing.T) {
	t.Parallel()

	var w builder
	w.header(1, 1, 1, 8, ModeIndexed)
	w.u32(6)
	w.raw([]byte{1, 2, 3, 4, 5, 6})
	w.u32(0)
	w.u32(0)

	doc, err := Decode(w.b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.ColorModeData) != 6 || doc.ColorModeData[5] != 6 {
		t.Fatalf("color mode data mismatch: %v", doc.ColorModeData)
	}
}

func TestOpenAndClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.psd")
	if err := os.WriteFile(path, twoLayerDoc(CompressionRaw, nil), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Document == nil || len(f.Document.Layers) != 2 {
		t.Fatalf("open decoded wrong document: %+v", f.Document)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.psd")
	data := twoLayerDoc(CompressionRaw, nil)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = rf.Close() }()

	f, err := OpenReaderAt(rf, int64(len(data)))
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() { _ = f.Close() }()
	if f.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if len(f.Document.Channels) != 4 {
		t.Fatalf("got %d payloads, want 4", len(f.Document.Channels))
	}
}

func TestDecodeStructuralFailureReturnsNoDocument(t *testing.T) {
	t.Parallel()

	// Truncate mid-payload: the decode must fail as a whole.
	data := twoLayerDoc(CompressionRaw, nil)
	doc, err := Decode(data[:len(data)-4])
	if err == nil {
		t.Fatalf("truncated decode succeeded")
	}
	if doc != nil {
		t.Fatalf("partial document exposed on failure")
	}
}
