package segment

// Header describes one archived segment. SegmentRoot commits to all of the
// segment's record commitments; PrevSegmentRoot chains headers together so
// the whole history is anchored by the latest root.
type Header struct {
	SegmentIndex    SegmentIndex
	SegmentRoot     []byte
	PrevSegmentRoot []byte
}
