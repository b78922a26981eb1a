package psd

import "errors"

var (
	// ErrMalformedSignature is returned when a fixed magic tag does not match.
	ErrMalformedSignature = errors.New("psd: malformed signature")
	// ErrUnsupportedVersion is returned for a recognized but unhandled file version.
	ErrUnsupportedVersion = errors.New("psd: unsupported version")
	// ErrUnsupportedColorMode is returned for a color mode outside the known set.
	ErrUnsupportedColorMode = errors.New("psd: unsupported color mode")
	// ErrMalformedHeader is returned when a fixed-value invariant is violated.
	ErrMalformedHeader = errors.New("psd: malformed header")
	// ErrInconsistentLength is returned when a declared length does not match
	// the bytes actually accounted for.
	ErrInconsistentLength = errors.New("psd: inconsistent declared length")
	// ErrUnexpectedEnd is returned on any read or seek past the end of the source.
	ErrUnexpectedEnd = errors.New("psd: unexpected end of stream")
	// ErrUnsupportedCompression marks a channel payload whose compression tag
	// is outside the known set. It is recorded on the payload and does not
	// abort the decode.
	ErrUnsupportedCompression = errors.New("psd: unsupported compression")
)
