package psd

import (
	"encoding/binary"
	"math"
)

// builder assembles big-endian test fixtures.
type builder struct {
	b []byte
}

func (w *builder) raw(p []byte) { w.b = append(w.b, p...) }

func (w *builder) u8(v uint8) { w.b = append(w.b, v) }

func (w *builder) u16(v uint16) { w.b = binary.BigEndian.AppendUint16(w.b, v) }

func (w *builder) i16(v int16) { w.u16(uint16(v)) }

func (w *builder) u32(v uint32) { w.b = binary.BigEndian.AppendUint32(w.b, v) }

func (w *builder) f64(v float64) {
	w.b = binary.BigEndian.AppendUint64(w.b, math.Float64bits(v))
}

func (w *builder) str(s string) { w.b = append(w.b, s...) }

func (w *builder) zeros(n int) { w.b = append(w.b, make([]byte, n)...) }

func (w *builder) len() int { return len(w.b) }

// header appends a valid 26-byte file header.
func (w *builder) header(channels uint16, height, width uint32, depth uint16, mode ColorMode) {
	w.str(fileSignature)
	w.u16(supportedVersion)
	w.zeros(6)
	w.u16(channels)
	w.u32(height)
	w.u32(width)
	w.u16(depth)
	w.u16(uint16(mode))
}

// resource appends one image resource entry with correct name/data padding.
func (w *builder) resource(id uint16, name string, data []byte) {
	w.str(resourceSignature)
	w.u16(id)
	w.u8(uint8(len(name)))
	w.str(name)
	if len(name)%2 == 0 {
		w.u8(0)
	}
	w.u32(uint32(len(data)))
	w.raw(data)
	if len(data)%2 == 1 {
		w.u8(0)
	}
}

// pascalName4 appends a layer name padded to a multiple of 4 including the
// length byte.
func (w *builder) pascalName4(name string) {
	w.u8(uint8(len(name)))
	w.str(name)
	total := len(name) + 1
	if total%4 != 0 {
		w.zeros((total/4+1)*4 - total)
	}
}

func (w *builder) rect(r Rect) {
	w.u32(r.Top)
	w.u32(r.Left)
	w.u32(r.Bottom)
	w.u32(r.Right)
}

// layerRecordHeader appends everything of a layer record up to (and not
// including) the extra-data length field.
func (w *builder) layerRecordHeader(r Rect, chans []ChannelInfo, key string) {
	w.rect(r)
	w.u16(uint16(len(chans)))
	for _, ch := range chans {
		w.u16(ch.ID)
		w.u32(ch.Length)
	}
	w.str(blendSignature)
	w.str(key)
	w.u8(255) // opacity
	w.u8(0)   // clipping
	w.u8(0x02)
	w.u8(0) // filler
}

// emptyMaskAndRanges appends a zero-length mask and a consistent blending
// ranges block for the given channel count.
func (w *builder) emptyMaskAndRanges(channels int) {
	w.u32(0)
	w.u32(uint32(8 * (channels + 1)))
	for i := 0; i < channels+1; i++ {
		w.u32(0)
		w.u32(0xffff)
	}
}
