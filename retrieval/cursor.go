package retrieval

import "github.com/autonomys/go-archiving/segment"

// pieceCursor walks a segment's piece indexes in source-first order. Indexes
// are handed out once and never re-drawn; failed downloads make progress by
// taking further indexes instead.
type pieceCursor struct {
	indices []segment.PieceIndex
	offset  int
}

func newPieceCursor(segmentIndex segment.SegmentIndex) *pieceCursor {
	return &pieceCursor{indices: segmentIndex.SourceFirstPieceIndexes()}
}

func (c *pieceCursor) empty() bool {
	return c.offset >= len(c.indices)
}

// peek returns the next index without consuming it.
func (c *pieceCursor) peek() (segment.PieceIndex, bool) {
	if c.empty() {
		return 0, false
	}
	return c.indices[c.offset], true
}

// take consumes and returns up to n indexes.
func (c *pieceCursor) take(n int) []segment.PieceIndex {
	if remaining := len(c.indices) - c.offset; n > remaining {
		n = remaining
	}
	batch := c.indices[c.offset : c.offset+n]
	c.offset += n
	return batch
}
