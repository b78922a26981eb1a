package psd

import "fmt"

// ChannelPayload is one channel's framed pixel payload. Data is the payload
// body after the 2-byte compression tag and aliases the source buffer; it is
// never decompressed here. For RLE payloads Lines holds the per-scanline
// compressed spans. Unsupported marks a compression tag outside the known
// set; the span is still framed exactly from the declared channel length.
type ChannelPayload struct {
	Compression Compression
	Unsupported bool
	Data        []byte
	Lines       [][]byte

	// Err wraps ErrUnsupportedCompression when Unsupported is set. The decode
	// as a whole still succeeds; the span is framed and skipped.
	Err error

	// ExpectedRawSize is the body size implied by geometry and bit depth for
	// raw payloads. Informational only: span sizing always derives from the
	// declared channel length.
	ExpectedRawSize uint32
}

// frameChannelPayload frames one channel payload. The declared byte length
// from the channel table is the span authority: exactly that many bytes are
// consumed for every compression tag, including unrecognized ones.
func frameChannelPayload(c *cursor, declared uint32, rect Rect, depth uint16) (ChannelPayload, error) {
	if declared < 2 {
		return ChannelPayload{}, fmt.Errorf("%w: channel declares %d bytes at offset %d, need 2 for the compression tag",
			ErrInconsistentLength, declared, c.offset())
	}
	span, err := c.readN(int(declared))
	if err != nil {
		return ChannelPayload{}, err
	}

	var p ChannelPayload
	p.Compression = Compression(uint16(span[0])<<8 | uint16(span[1]))
	p.Data = span[2:]

	switch p.Compression {
	case CompressionRaw:
		perSample := uint32(1)
		if depth >= 8 {
			perSample = uint32(depth) / 8
		}
		p.ExpectedRawSize = rect.Area() * perSample
	case CompressionRLE:
		lines, err := frameRLELines(p.Data, rect.Height())
		if err != nil {
			return ChannelPayload{}, err
		}
		p.Lines = lines
	case CompressionZIP, CompressionZIPPrediction:
		// Deflate bodies stay opaque; decompression is a consumer concern.
	default:
		p.Unsupported = true
		p.Err = fmt.Errorf("%w: tag %d", ErrUnsupportedCompression, uint16(p.Compression))
	}
	return p, nil
}

// frameRLELines splits an RLE body into per-scanline spans: one u16 byte
// count per scan line, then that many compressed bytes each.
func frameRLELines(body []byte, scanLines uint32) ([][]byte, error) {
	countBytes := int(scanLines) * 2
	if len(body) < countBytes {
		return nil, fmt.Errorf("%w: rle body of %d bytes cannot hold %d line counts",
			ErrInconsistentLength, len(body), scanLines)
	}
	lines := make([][]byte, scanLines)
	off := countBytes
	for i := range lines {
		n := int(body[i*2])<<8 | int(body[i*2+1])
		if off+n > len(body) {
			return nil, fmt.Errorf("%w: rle line %d of %d bytes crosses payload end", ErrInconsistentLength, i, n)
		}
		lines[i] = body[off : off+n]
		off += n
	}
	return lines, nil
}
