package psd

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Document is the decoded structural view of one file. All byte spans alias
// the source buffer handed to Decode (or the mapping owned by File). A
// document is only produced by a fully successful decode.
type Document struct {
	Header        Header
	ColorModeData []byte
	Resources     []Resource
	Layers        []LayerRecord

	// Channels holds one payload per channel across all layers, in layer
	// order then channel-table order.
	Channels []ChannelPayload

	// MergedAlpha is set when the layer count field is negative, signaling
	// that the first alpha channel carries merged-result transparency.
	MergedAlpha bool
}

// LayerPayloads returns the payload slice for layer i, in channel-table order.
func (d *Document) LayerPayloads(i int) []ChannelPayload {
	off := 0
	for j := 0; j < i; j++ {
		off += len(d.Layers[j].Channels)
	}
	return d.Channels[off : off+len(d.Layers[i].Channels)]
}

// Decode decodes a complete document from an in-memory byte source. On any
// structural error no document is returned.
func Decode(data []byte) (*Document, error) {
	c := newCursor(data)
	doc := &Document{}
	var err error

	if doc.Header, err = decodeFileHeader(c); err != nil {
		return nil, err
	}

	cmSize, err := c.readU32()
	if err != nil {
		return nil, err
	}
	if doc.ColorModeData, err = c.readN(int(cmSize)); err != nil {
		return nil, err
	}

	if doc.Resources, err = decodeResources(c); err != nil {
		return nil, err
	}

	if err = decodeLayerMaskSection(c, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeLayerMaskSection walks the layer and mask section: section length,
// layer info (signed layer count, records, then payloads in layer order and
// channel-table order). The declared section length is a resynchronization
// boundary; trailing sub-sections such as global mask info are skipped by
// seeking to it.
func decodeLayerMaskSection(c *cursor, doc *Document) error {
	sectionLen, err := c.readU32()
	if err != nil {
		return err
	}
	if sectionLen == 0 {
		return nil
	}
	end := c.offset() + int64(sectionLen)
	if err := checkBlockEnd(c, end); err != nil {
		return err
	}

	infoLen, err := c.readU32()
	if err != nil {
		return err
	}
	if infoLen > 0 {
		count, err := c.readI16()
		if err != nil {
			return err
		}
		if count < 0 {
			doc.MergedAlpha = true
			count = -count
		}

		doc.Layers = make([]LayerRecord, count)
		for i := range doc.Layers {
			if doc.Layers[i], err = decodeLayerRecord(c); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}

		for i := range doc.Layers {
			rec := &doc.Layers[i]
			for _, ch := range rec.Channels {
				payload, err := frameChannelPayload(c, ch.Length, rec.Rect, doc.Header.Depth)
				if err != nil {
					return fmt.Errorf("layer %d channel %d: %w", i, ch.ID, err)
				}
				doc.Channels = append(doc.Channels, payload)
			}
		}
	}

	return c.seek(end)
}

// File is an open, decoded document backed by a read-only mapping of the
// source file. Close releases the mapping; document spans must not be
// retained afterwards.
type File struct {
	Path     string
	Data     []byte
	Document *Document
	mmapped  bool
}

// Open maps the file read-only and decodes it, falling back to ReadAt-based
// loading where mmap is unavailable.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file size %d not addressable", ErrUnexpectedEnd, size64)
	}
	size := int(size64)

	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			doc, decErr := Decode(data)
			if decErr != nil {
				_ = unix.Munmap(data)
				return nil, decErr
			}
			return &File{Path: path, Data: data, Document: doc, mmapped: true}, nil
		}
	}

	data, err := readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &File{Path: path, Data: data, Document: doc}, nil
}

// OpenReaderAt loads and decodes a document from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: size %d not addressable", ErrUnexpectedEnd, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, Document: doc}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases file resources and any mmap backing.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Document = nil
	f.mmapped = false
	return err
}
