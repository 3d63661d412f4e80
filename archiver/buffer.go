package archiver

import "github.com/autonomys/go-archiving/segment"

// pendingObject is a block object waiting for its bytes to land in a sliced
// segment. The offset is relative to the owning item's data.
type pendingObject struct {
	hash   [32]byte
	offset int
}

// bufferedItem is a payload item queued in the carry buffer together with the
// objects located inside its data.
type bufferedItem struct {
	typ     segment.ItemType
	data    []byte
	objects []pendingObject
}

func (it bufferedItem) encodedLen() int {
	return segment.Item{Type: it.typ, Data: it.data}.EncodedLen()
}

// carryBuffer holds items that have not been archived yet. It is owned by a
// single archiver and never shared.
type carryBuffer struct {
	items []bufferedItem
}

func (b *carryBuffer) push(it bufferedItem) {
	b.items = append(b.items, it)
}

// popFront removes and returns the oldest item.
func (b *carryBuffer) popFront() bufferedItem {
	it := b.items[0]
	b.items = b.items[1:]
	return it
}

// replaceFront swaps the oldest item, used when an item is split at a segment
// boundary and its tail stays buffered.
func (b *carryBuffer) replaceFront(it bufferedItem) {
	b.items[0] = it
}

func (b *carryBuffer) empty() bool {
	return len(b.items) == 0
}

// encodedLen returns the payload bytes the buffered items would occupy.
func (b *carryBuffer) encodedLen() int {
	var n int
	for _, it := range b.items {
		n += it.encodedLen()
	}
	return n
}
