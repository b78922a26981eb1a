// Package psd decodes the structural container of a Photoshop document:
// the fixed file header, the tagged image-resource block, and the layer and
// mask section. It walks offsets, lengths and tags without interpreting
// pixel content; channel payloads are framed to their exact byte spans and
// left to external codecs.
package psd

import "fmt"

const (
	fileSignature     = "8BPS"
	resourceSignature = "8BIM"
	blendSignature    = "8BIM"

	supportedVersion = 1

	// Declared mask length at which the trailing real-mask sub-record is
	// replaced by a 2-byte padding field.
	maskShortLength = 20

	maxChannels = 56
)

type ColorMode uint16

const (
	ModeBitmap       ColorMode = 0
	ModeGrayscale    ColorMode = 1
	ModeIndexed      ColorMode = 2
	ModeRGB          ColorMode = 3
	ModeCMYK         ColorMode = 4
	ModeMultichannel ColorMode = 7
	ModeDuotone      ColorMode = 8
	ModeLab          ColorMode = 9
)

func (m ColorMode) known() bool {
	switch m {
	case ModeBitmap, ModeGrayscale, ModeIndexed, ModeRGB, ModeCMYK,
		ModeMultichannel, ModeDuotone, ModeLab:
		return true
	}
	return false
}

func (m ColorMode) String() string {
	switch m {
	case ModeBitmap:
		return "bitmap"
	case ModeGrayscale:
		return "grayscale"
	case ModeIndexed:
		return "indexed"
	case ModeRGB:
		return "rgb"
	case ModeCMYK:
		return "cmyk"
	case ModeMultichannel:
		return "multichannel"
	case ModeDuotone:
		return "duotone"
	case ModeLab:
		return "lab"
	default:
		return fmt.Sprintf("mode(%d)", uint16(m))
	}
}

type Compression uint16

const (
	CompressionRaw           Compression = 0
	CompressionRLE           Compression = 1
	CompressionZIP           Compression = 2
	CompressionZIPPrediction Compression = 3
)

func (c Compression) known() bool {
	return c <= CompressionZIPPrediction
}

func (c Compression) String() string {
	switch c {
	case CompressionRaw:
		return "raw"
	case CompressionRLE:
		return "rle"
	case CompressionZIP:
		return "zip"
	case CompressionZIPPrediction:
		return "zip-prediction"
	default:
		return fmt.Sprintf("compression(%d)", uint16(c))
	}
}

// Rect is a layer or mask bounding box. Bottom >= Top and Right >= Left for
// every rect produced by a successful decode.
type Rect struct {
	Top    uint32
	Left   uint32
	Bottom uint32
	Right  uint32
}

func (r Rect) Width() uint32  { return r.Right - r.Left }
func (r Rect) Height() uint32 { return r.Bottom - r.Top }

// Area is the pixel count of the rect; Height doubles as the scan-line count.
func (r Rect) Area() uint32 { return r.Width() * r.Height() }

func (r Rect) normalized() bool {
	return r.Bottom >= r.Top && r.Right >= r.Left
}

// LayerFlags is the layer record flag byte, one named field per bit.
type LayerFlags struct {
	TransparencyProtected bool
	Visible               bool
	Obsolete              bool
	Bit4Useful            bool
	PixelDataIrrelevant   bool
}

func decodeLayerFlags(b uint8) LayerFlags {
	return LayerFlags{
		TransparencyProtected: b&0x01 != 0,
		Visible:               b&0x02 != 0,
		Obsolete:              b&0x04 != 0,
		Bit4Useful:            b&0x08 != 0,
		PixelDataIrrelevant:   b&0x10 != 0,
	}
}

// MaskFlags is the primary mask flag byte.
type MaskFlags struct {
	PositionRelative bool
	Disabled         bool
	InvertObsolete   bool
	FromRenderedData bool
	HasParameters    bool
}

func decodeMaskFlags(b uint8) MaskFlags {
	return MaskFlags{
		PositionRelative: b&0x01 != 0,
		Disabled:         b&0x02 != 0,
		InvertObsolete:   b&0x04 != 0,
		FromRenderedData: b&0x08 != 0,
		HasParameters:    b&0x10 != 0,
	}
}

// MaskParamFlags gates the optional mask density/feather scalars.
type MaskParamFlags struct {
	UserDensity   bool
	UserFeather   bool
	VectorDensity bool
	VectorFeather bool
}

func decodeMaskParamFlags(b uint8) MaskParamFlags {
	return MaskParamFlags{
		UserDensity:   b&0x01 != 0,
		UserFeather:   b&0x02 != 0,
		VectorDensity: b&0x04 != 0,
		VectorFeather: b&0x08 != 0,
	}
}

