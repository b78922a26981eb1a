package psd

import (
	"encoding/binary"
	"fmt"
)

// Resource is one tagged entry of the image-resource block. Data is the
// unpadded declared payload and aliases the source buffer.
type Resource struct {
	ID   uint16
	Name string
	Data []byte
}

// decodeResources reads the u32 block length and then decodes resources
// until exactly that many bytes have been consumed. Termination is by byte
// accounting against the declared length, not by tag sniffing; a resource
// whose fields would cross the block boundary is a structural error.
func decodeResources(c *cursor) ([]Resource, error) {
	blockLen, err := c.readU32()
	if err != nil {
		return nil, err
	}
	end := c.offset() + int64(blockLen)
	if err := checkBlockEnd(c, end); err != nil {
		return nil, err
	}

	var resources []Resource
	for c.offset() < end {
		res, err := decodeResource(c, end)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	if c.offset() != end {
		return nil, fmt.Errorf("%w: resource block consumed %d bytes past declared end %d",
			ErrInconsistentLength, c.offset()-end, end)
	}
	return resources, nil
}

func decodeResource(c *cursor, end int64) (Resource, error) {
	sigOff := c.offset()
	sig, err := readWithin(c, end, 4)
	if err != nil {
		return Resource{}, err
	}
	if string(sig) != resourceSignature {
		return Resource{}, fmt.Errorf("%w: resource tag %q at offset %d", ErrMalformedSignature, sig, sigOff)
	}

	var res Resource
	idBytes, err := readWithin(c, end, 2)
	if err != nil {
		return Resource{}, err
	}
	res.ID = binary.BigEndian.Uint16(idBytes)

	// Name field: 1 length byte + name bytes, padded so the total is even.
	// An even raw length (including zero) gets one trailing pad byte.
	lenByte, err := readWithin(c, end, 1)
	if err != nil {
		return Resource{}, err
	}
	nameLen := int(lenByte[0])
	padded := nameLen
	if nameLen%2 == 0 {
		padded++
	}
	nameBytes, err := readWithin(c, end, padded)
	if err != nil {
		return Resource{}, err
	}
	res.Name = string(nameBytes[:nameLen])

	sizeBytes, err := readWithin(c, end, 4)
	if err != nil {
		return Resource{}, err
	}
	dataLen := int(binary.BigEndian.Uint32(sizeBytes))
	data, err := readWithin(c, end, dataLen)
	if err != nil {
		return Resource{}, err
	}
	res.Data = data
	if dataLen%2 == 1 {
		if _, err := readWithin(c, end, 1); err != nil {
			return Resource{}, err
		}
	}
	return res, nil
}

// readWithin reads n bytes, failing with InconsistentLength when the read
// would cross the declared block boundary.
func readWithin(c *cursor, end int64, n int) ([]byte, error) {
	if c.offset()+int64(n) > end {
		return nil, fmt.Errorf("%w: %d bytes at offset %d cross block end %d",
			ErrInconsistentLength, n, c.offset(), end)
	}
	return c.readN(n)
}

func checkBlockEnd(c *cursor, end int64) error {
	if end > int64(len(c.data)) {
		return fmt.Errorf("%w: declared block end %d outside source of %d bytes",
			ErrUnexpectedEnd, end, len(c.data))
	}
	return nil
}
