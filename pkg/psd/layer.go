package psd

import "fmt"

// ChannelInfo is one entry of a layer's channel table. Length is the
// declared byte length of the channel's payload and is the authoritative
// span size during payload framing.
type ChannelInfo struct {
	ID     uint16
	Length uint32
}

// LayerMask is the optional mask sub-record of a layer. The real-mask
// trailer (RealFlags, RealBackground, RealRect) is absent when the declared
// length equals the short sentinel, in which case a 2-byte pad stands in.
type LayerMask struct {
	Rect        Rect
	DefaultFill uint8
	Flags       MaskFlags

	// Present only when Flags.HasParameters is set; each scalar below is
	// present only when its own ParamFlags bit is set.
	ParamFlags    MaskParamFlags
	UserDensity   uint8
	UserFeather   float64
	VectorDensity uint8
	VectorFeather float64

	RealFlags      MaskFlags
	RealBackground uint8
	RealRect       Rect
}

// BlendingRanges is one composite gray range plus one range per channel.
type BlendingRanges struct {
	CompositeGray BlendingRange
	Channels      []BlendingRange
}

type BlendingRange struct {
	Source      uint32
	Destination uint32
}

// LayerRecord is one layer's metadata record.
type LayerRecord struct {
	Rect        Rect
	Channels    []ChannelInfo
	BlendMode   string
	Opacity     uint8
	Clipping    bool
	Flags       LayerFlags
	ExtraLength uint32
	Mask        *LayerMask
	Ranges      *BlendingRanges
	Name        string
}

// decodeLayerRecord reads one layer record. The declared extra-data length
// is ground truth: the mask, blending-range and name sub-records are decoded
// optimistically and the cursor is then seeked unconditionally to the
// declared resume offset, so a sub-record layout this decoder does not fully
// understand cannot desynchronize the rest of the document.
func decodeLayerRecord(c *cursor) (LayerRecord, error) {
	var rec LayerRecord
	var err error

	if rec.Rect, err = decodeRect(c); err != nil {
		return rec, err
	}
	if !rec.Rect.normalized() {
		return rec, fmt.Errorf("%w: layer rect not normalized", ErrMalformedHeader)
	}

	count, err := c.readU16()
	if err != nil {
		return rec, err
	}
	rec.Channels = make([]ChannelInfo, count)
	for i := range rec.Channels {
		if rec.Channels[i].ID, err = c.readU16(); err != nil {
			return rec, err
		}
		if rec.Channels[i].Length, err = c.readU32(); err != nil {
			return rec, err
		}
	}

	sigOff := c.offset()
	sig, err := c.readTag()
	if err != nil {
		return rec, err
	}
	if string(sig[:]) != blendSignature {
		return rec, fmt.Errorf("%w: blend mode signature %q at offset %d", ErrMalformedSignature, sig[:], sigOff)
	}
	key, err := c.readTag()
	if err != nil {
		return rec, err
	}
	rec.BlendMode = string(key[:])

	if rec.Opacity, err = c.readU8(); err != nil {
		return rec, err
	}
	if rec.Clipping, err = c.readBool(); err != nil {
		return rec, err
	}
	flags, err := c.readU8()
	if err != nil {
		return rec, err
	}
	rec.Flags = decodeLayerFlags(flags)

	filler, err := c.readU8()
	if err != nil {
		return rec, err
	}
	if filler != 0 {
		return rec, fmt.Errorf("%w: layer record filler byte %#02x at offset %d",
			ErrMalformedHeader, filler, c.offset()-1)
	}

	if rec.ExtraLength, err = c.readU32(); err != nil {
		return rec, err
	}
	if rec.ExtraLength == 0 {
		return rec, nil
	}
	resume := c.offset() + int64(rec.ExtraLength)
	if resume > int64(len(c.data)) {
		return rec, fmt.Errorf("%w: extra data of %d bytes at offset %d outside source",
			ErrUnexpectedEnd, rec.ExtraLength, c.offset())
	}

	if rec.Mask, err = decodeLayerMask(c); err != nil {
		return rec, err
	}
	if rec.Ranges, err = decodeBlendingRanges(c, len(rec.Channels)); err != nil {
		return rec, err
	}
	if rec.Name, err = decodeLayerName(c); err != nil {
		return rec, err
	}

	// Resynchronize: the declared extra-data length wins over whatever the
	// best-effort sub-record decode actually consumed.
	if err := c.seek(resume); err != nil {
		return rec, err
	}
	return rec, nil
}

func decodeRect(c *cursor) (Rect, error) {
	var r Rect
	var err error
	if r.Top, err = c.readU32(); err != nil {
		return r, err
	}
	if r.Left, err = c.readU32(); err != nil {
		return r, err
	}
	if r.Bottom, err = c.readU32(); err != nil {
		return r, err
	}
	if r.Right, err = c.readU32(); err != nil {
		return r, err
	}
	return r, nil
}

// decodeLayerMask reads the length-gated mask sub-record. A zero declared
// length means no mask. Consuming fewer bytes than a future-versioned layout
// declares is fine; the caller's resynchronization seek absorbs the drift.
func decodeLayerMask(c *cursor) (*LayerMask, error) {
	length, err := c.readU32()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}

	var m LayerMask
	if m.Rect, err = decodeRect(c); err != nil {
		return nil, err
	}
	if m.DefaultFill, err = c.readU8(); err != nil {
		return nil, err
	}
	if m.DefaultFill != 0 && m.DefaultFill != 255 {
		return nil, fmt.Errorf("%w: mask default fill %d at offset %d",
			ErrMalformedHeader, m.DefaultFill, c.offset()-1)
	}
	flags, err := c.readU8()
	if err != nil {
		return nil, err
	}
	m.Flags = decodeMaskFlags(flags)

	if m.Flags.HasParameters {
		pf, err := c.readU8()
		if err != nil {
			return nil, err
		}
		m.ParamFlags = decodeMaskParamFlags(pf)
		if m.ParamFlags.UserDensity {
			if m.UserDensity, err = c.readU8(); err != nil {
				return nil, err
			}
		}
		if m.ParamFlags.UserFeather {
			if m.UserFeather, err = c.readF64(); err != nil {
				return nil, err
			}
		}
		if m.ParamFlags.VectorDensity {
			if m.VectorDensity, err = c.readU8(); err != nil {
				return nil, err
			}
		}
		if m.ParamFlags.VectorFeather {
			if m.VectorFeather, err = c.readF64(); err != nil {
				return nil, err
			}
		}
	}

	if length == maskShortLength {
		// Short layout: a 2-byte pad instead of the real-mask trailer.
		if err := c.skip(2); err != nil {
			return nil, err
		}
		return &m, nil
	}

	rf, err := c.readU8()
	if err != nil {
		return nil, err
	}
	m.RealFlags = decodeMaskFlags(rf)
	if m.RealBackground, err = c.readU8(); err != nil {
		return nil, err
	}
	if m.RealBackground != 0 && m.RealBackground != 255 {
		return nil, fmt.Errorf("%w: mask real background %d at offset %d",
			ErrMalformedHeader, m.RealBackground, c.offset()-1)
	}
	if m.RealRect, err = decodeRect(c); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeBlendingRanges reads the composite gray range plus one range per
// channel. The declared length must equal the decoded byte count exactly.
func decodeBlendingRanges(c *cursor, channels int) (*BlendingRanges, error) {
	length, err := c.readU32()
	if err != nil {
		return nil, err
	}
	expected := uint32(8 * (channels + 1))
	if length != expected {
		return nil, fmt.Errorf("%w: blending ranges declare %d bytes, channel table implies %d",
			ErrInconsistentLength, length, expected)
	}

	var br BlendingRanges
	if br.CompositeGray, err = decodeBlendingRange(c); err != nil {
		return nil, err
	}
	br.Channels = make([]BlendingRange, channels)
	for i := range br.Channels {
		if br.Channels[i], err = decodeBlendingRange(c); err != nil {
			return nil, err
		}
	}
	return &br, nil
}

func decodeBlendingRange(c *cursor) (BlendingRange, error) {
	var r BlendingRange
	var err error
	if r.Source, err = c.readU32(); err != nil {
		return r, err
	}
	r.Destination, err = c.readU32()
	return r, err
}

// decodeLayerName reads the layer name: 1 length byte plus name bytes,
// padded so the total rounds up to a multiple of 4. A zero-length name
// still consumes 4 bytes.
func decodeLayerName(c *cursor) (string, error) {
	n, err := c.readU8()
	if err != nil {
		return "", err
	}
	total := int(n) + 1
	if total%4 != 0 {
		total = (total/4 + 1) * 4
	}
	b, err := c.readN(total - 1)
	if err != nil {
		return "", err
	}
	return string(b[:n]), nil
}
