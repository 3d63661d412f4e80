package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ItemType tags one item of a segment's payload stream.
type ItemType byte

const (
	// ItemPadding fills the unused tail of a payload with zero bytes. A zero
	// type byte means "padding to the end of the payload".
	ItemPadding ItemType = iota
	// ItemBlock holds a complete block.
	ItemBlock
	// ItemBlockStart holds the first fragment of a block that continues in
	// the next segment.
	ItemBlockStart
	// ItemBlockContinuation holds a middle fragment of a block that continues
	// in the next segment.
	ItemBlockContinuation
	// ItemBlockEnd holds the final fragment of a block started in an earlier
	// segment.
	ItemBlockEnd
)

// ErrMalformedPayload reports a segment payload that does not parse as an
// item stream.
var ErrMalformedPayload = errors.New("malformed segment payload")

// Item is one element of a segment's payload stream.
//
// Every item is encoded as a type byte, the uvarint length of its data and
// the data itself. Blocks that straddle a segment boundary are split into a
// start fragment filling the segment and end/continuation fragments in the
// following segments, so every segment's payload parses on its own.
type Item struct {
	Type ItemType
	Data []byte
}

// EncodedLen returns the number of payload bytes the item occupies.
func (it Item) EncodedLen() int {
	return ItemOverhead(len(it.Data)) + len(it.Data)
}

// ItemOverhead returns the encoding overhead of an item carrying dataLen
// bytes: the type byte plus the uvarint length.
func ItemOverhead(dataLen int) int {
	n := 2
	for v := uint64(dataLen); v >= 0x80; v >>= 7 {
		n++
	}
	return n
}

// AppendItem appends the encoded item to dst and returns the extended slice.
func AppendItem(dst []byte, it Item) []byte {
	dst = append(dst, byte(it.Type))
	dst = binary.AppendUvarint(dst, uint64(len(it.Data)))
	return append(dst, it.Data...)
}

// ParsePayload parses a segment payload into its items. Trailing padding is
// consumed and not returned. The returned items alias the payload.
func ParsePayload(payload []byte) ([]Item, error) {
	var items []Item
	for offset := 0; offset < len(payload); {
		typ := ItemType(payload[offset])
		if typ == ItemPadding {
			for i, b := range payload[offset+1:] {
				if b != 0 {
					return nil, fmt.Errorf("%w: non-zero byte at offset %d inside padding",
						ErrMalformedPayload, offset+1+i)
				}
			}
			break
		}
		if typ > ItemBlockEnd {
			return nil, fmt.Errorf("%w: unknown item type %d at offset %d", ErrMalformedPayload, typ, offset)
		}

		dataLen, varintLen := binary.Uvarint(payload[offset+1:])
		if varintLen <= 0 {
			return nil, fmt.Errorf("%w: invalid item length at offset %d", ErrMalformedPayload, offset+1)
		}
		dataStart := offset + 1 + varintLen
		if dataLen > uint64(len(payload)-dataStart) {
			return nil, fmt.Errorf("%w: item length %d at offset %d exceeds payload",
				ErrMalformedPayload, dataLen, offset)
		}

		items = append(items, Item{Type: typ, Data: payload[dataStart : dataStart+int(dataLen)]})
		offset = dataStart + int(dataLen)
	}
	return items, nil
}
