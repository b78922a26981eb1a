package psd

import "fmt"

// Header is the fixed 26-byte file header. Immutable once decoded.
type Header struct {
	Version   uint16
	Channels  uint16
	Height    uint32
	Width     uint32
	Depth     uint16
	ColorMode ColorMode
}

// BytesPerSample is the per-channel sample width implied by Depth.
// Sub-byte depths round up to one byte per sample.
func (h Header) BytesPerSample() uint32 {
	if h.Depth < 8 {
		return 1
	}
	return uint32(h.Depth) / 8
}

func decodeFileHeader(c *cursor) (Header, error) {
	sigOff := c.offset()
	sig, err := c.readTag()
	if err != nil {
		return Header{}, err
	}
	if string(sig[:]) != fileSignature {
		return Header{}, fmt.Errorf("%w: file signature %q at offset %d", ErrMalformedSignature, sig[:], sigOff)
	}

	var h Header
	if h.Version, err = c.readU16(); err != nil {
		return Header{}, err
	}
	if h.Version != supportedVersion {
		return Header{}, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}

	reserved, err := c.readN(6)
	if err != nil {
		return Header{}, err
	}
	for _, b := range reserved {
		if b != 0 {
			return Header{}, fmt.Errorf("%w: reserved bytes not zero", ErrMalformedHeader)
		}
	}

	if h.Channels, err = c.readU16(); err != nil {
		return Header{}, err
	}
	if h.Channels < 1 || h.Channels > maxChannels {
		return Header{}, fmt.Errorf("%w: channel count %d outside 1..%d", ErrMalformedHeader, h.Channels, maxChannels)
	}
	if h.Height, err = c.readU32(); err != nil {
		return Header{}, err
	}
	if h.Width, err = c.readU32(); err != nil {
		return Header{}, err
	}
	if h.Depth, err = c.readU16(); err != nil {
		return Header{}, err
	}
	switch h.Depth {
	case 1, 8, 16, 32:
	default:
		return Header{}, fmt.Errorf("%w: bit depth %d", ErrMalformedHeader, h.Depth)
	}

	mode, err := c.readU16()
	if err != nil {
		return Header{}, err
	}
	h.ColorMode = ColorMode(mode)
	if !h.ColorMode.known() {
		return Header{}, fmt.Errorf("%w: color mode %d", ErrUnsupportedColorMode, mode)
	}
	return h, nil
}
