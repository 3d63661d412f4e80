package segment

// SegmentIndex identifies a segment within the archived history. Indexes are
// assigned by the archiver, monotonically from zero.
type SegmentIndex uint64

// PieceIndex globally identifies a piece. It maps bijectively to a
// (SegmentIndex, position) pair.
type PieceIndex uint64

// NewPieceIndex composes a PieceIndex from a segment index and a position
// within the segment.
func NewPieceIndex(segmentIndex SegmentIndex, position uint32) PieceIndex {
	return PieceIndex(uint64(segmentIndex)*PiecesPerSegment + uint64(position))
}

// SegmentIndex returns the index of the segment this piece belongs to.
func (i PieceIndex) SegmentIndex() SegmentIndex {
	return SegmentIndex(uint64(i) / PiecesPerSegment)
}

// Position returns the position of the piece within its segment.
func (i PieceIndex) Position() uint32 {
	return uint32(uint64(i) % PiecesPerSegment)
}

// IsSource reports whether the piece holds a raw source record rather than
// parity data.
func (i PieceIndex) IsSource() bool {
	return i.Position() < RecordsPerSegment
}

// FirstPieceIndex returns the index of the segment's first piece.
func (i SegmentIndex) FirstPieceIndex() PieceIndex {
	return NewPieceIndex(i, 0)
}

// PieceIndexes returns all piece indexes of the segment in position order.
func (i SegmentIndex) PieceIndexes() []PieceIndex {
	indexes := make([]PieceIndex, 0, PiecesPerSegment)
	for position := uint32(0); position < PiecesPerSegment; position++ {
		indexes = append(indexes, NewPieceIndex(i, position))
	}
	return indexes
}

// SourceFirstPieceIndexes returns all piece indexes of the segment with every
// source position ordered before any parity position. Source positions occupy
// [0, RecordsPerSegment), so position order already satisfies this; the happy
// download path then gets away without any recovery at all.
func (i SegmentIndex) SourceFirstPieceIndexes() []PieceIndex {
	return i.PieceIndexes()
}
