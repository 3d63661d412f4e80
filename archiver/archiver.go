// Package archiver turns a stream of blocks into erasure-coded,
// commitment-bearing segments of the archived history.
package archiver

import (
	"fmt"
	"slices"

	"github.com/autonomys/go-archiving/commitment"
	"github.com/autonomys/go-archiving/erasure"
	"github.com/autonomys/go-archiving/segment"
)

// ArchivedSegment is one complete segment produced by the archiver: its
// header, all PiecesPerSegment pieces in position order and the translated
// locations of the objects archived with it.
type ArchivedSegment struct {
	Header  segment.Header
	Pieces  []segment.Piece
	Objects []segment.GlobalObject
}

// Archiver ingests block bytes and emits archived segments once enough data
// accumulates. It owns a carry buffer for the partial segment between calls
// and is not safe for concurrent use; one archiver archives one history
// stream.
type Archiver struct {
	coder  *erasure.Coder
	scheme commitment.Scheme

	buffer           carryBuffer
	nextSegmentIndex segment.SegmentIndex
	prevSegmentRoot  []byte
}

// New creates an Archiver starting at segment index zero.
func New(coder *erasure.Coder, scheme commitment.Scheme) *Archiver {
	return &Archiver{coder: coder, scheme: scheme}
}

// AddBlock appends a block and its object mapping to the archiver and returns
// the segments completed by it, in index order. A trailing partial segment
// stays buffered for the next call unless forceFinalize pads it out; padding
// is never applied mid-stream. Any returned error is fatal to the call and
// the input must not be resubmitted.
func (a *Archiver) AddBlock(
	block []byte,
	mapping segment.BlockObjectMapping,
	forceFinalize bool,
) ([]ArchivedSegment, error) {
	if len(block) > 0 {
		item := bufferedItem{typ: segment.ItemBlock, data: slices.Clone(block)}
		for _, obj := range mapping.Objects {
			if int(obj.Offset) >= len(block) {
				return nil, fmt.Errorf("object offset %d outside block of %d bytes", obj.Offset, len(block))
			}
			item.objects = append(item.objects, pendingObject{hash: obj.Hash, offset: int(obj.Offset)})
		}
		a.buffer.push(item)
	}

	var archived []ArchivedSegment
	for a.buffer.encodedLen() >= segment.PayloadSize {
		seg, err := a.sliceSegment()
		if err != nil {
			return nil, err
		}
		archived = append(archived, seg)
	}

	if forceFinalize && !a.buffer.empty() {
		seg, err := a.sliceSegment()
		if err != nil {
			return nil, err
		}
		archived = append(archived, seg)
	}
	return archived, nil
}

// placedObject is an object whose bytes landed in the segment currently being
// sliced, located by its payload offset.
type placedObject struct {
	hash   [32]byte
	offset int
}

// sliceSegment drains buffered items into exactly one segment payload,
// splitting the item straddling the boundary, and expands the payload into
// an archived segment. If the buffer runs out first the payload is padded
// with zeros (the forceFinalize path).
func (a *Archiver) sliceSegment() (ArchivedSegment, error) {
	payload := make([]byte, 0, segment.PayloadSize)
	var placed []placedObject

	for len(payload) < segment.PayloadSize && !a.buffer.empty() {
		remaining := segment.PayloadSize - len(payload)
		it := a.buffer.items[0]

		if it.encodedLen() <= remaining {
			a.buffer.popFront()
			headerLen := segment.ItemOverhead(len(it.data))
			for _, obj := range it.objects {
				placed = append(placed, placedObject{hash: obj.hash, offset: len(payload) + headerLen + obj.offset})
			}
			payload = segment.AppendItem(payload, segment.Item{Type: it.typ, Data: it.data})
			continue
		}

		splitAt, ok := splitPoint(remaining)
		if !ok {
			// The remaining space cannot hold even a one-byte fragment;
			// it becomes zero padding below.
			break
		}
		headType, tailType := splitTypes(it.typ)
		head := bufferedItem{typ: headType, data: it.data[:splitAt]}
		tail := bufferedItem{typ: tailType, data: it.data[splitAt:]}
		for _, obj := range it.objects {
			if obj.offset < splitAt {
				head.objects = append(head.objects, obj)
			} else {
				tail.objects = append(tail.objects, pendingObject{hash: obj.hash, offset: obj.offset - splitAt})
			}
		}
		a.buffer.replaceFront(tail)

		headerLen := segment.ItemOverhead(splitAt)
		for _, obj := range head.objects {
			placed = append(placed, placedObject{hash: obj.hash, offset: len(payload) + headerLen + obj.offset})
		}
		payload = segment.AppendItem(payload, segment.Item{Type: head.typ, Data: head.data})
	}

	payload = append(payload, make([]byte, segment.PayloadSize-len(payload))...)
	return a.buildSegment(payload, placed)
}

// buildSegment expands a full payload into pieces: split into records, extend
// with parity, commit every record and witness each commitment against the
// segment root.
func (a *Archiver) buildSegment(payload []byte, placed []placedObject) (ArchivedSegment, error) {
	source := make([][]byte, segment.RecordsPerSegment)
	for i := range source {
		source[i] = payload[i*segment.RecordSize : (i+1)*segment.RecordSize]
	}

	parity, err := a.coder.Extend(source)
	if err != nil {
		return ArchivedSegment{}, fmt.Errorf("extending segment records: %w", err)
	}

	records := make([][]byte, 0, segment.PiecesPerSegment)
	records = append(records, source...)
	records = append(records, parity...)

	commitments := make([][]byte, len(records))
	for i, record := range records {
		commitments[i], err = a.scheme.Commit(record)
		if err != nil {
			return ArchivedSegment{}, fmt.Errorf("committing to record %d: %w", i, err)
		}
	}
	root, witnesses, err := a.scheme.Prove(commitments)
	if err != nil {
		return ArchivedSegment{}, fmt.Errorf("proving record commitments: %w", err)
	}

	pieces := make([]segment.Piece, len(records))
	for i, record := range records {
		pieces[i], err = segment.NewPiece(record, commitments[i], witnesses[i])
		if err != nil {
			return ArchivedSegment{}, fmt.Errorf("assembling piece %d: %w", i, err)
		}
	}

	segmentIndex := a.nextSegmentIndex
	a.nextSegmentIndex++

	objects := make([]segment.GlobalObject, 0, len(placed))
	for _, obj := range placed {
		position := obj.offset / segment.RecordSize
		objects = append(objects, segment.GlobalObject{
			Hash:       obj.hash,
			PieceIndex: segment.NewPieceIndex(segmentIndex, uint32(position)),
			Offset:     uint32(obj.offset % segment.RecordSize),
		})
	}

	header := segment.Header{
		SegmentIndex:    segmentIndex,
		SegmentRoot:     root,
		PrevSegmentRoot: a.prevSegmentRoot,
	}
	a.prevSegmentRoot = root

	return ArchivedSegment{Header: header, Pieces: pieces, Objects: objects}, nil
}

// splitPoint returns the largest data prefix length whose encoded item fits
// into remaining payload bytes. Reports false if not even a one-byte fragment
// fits.
func splitPoint(remaining int) (int, bool) {
	if remaining < segment.ItemOverhead(1)+1 {
		return 0, false
	}
	splitAt := remaining - segment.ItemOverhead(remaining)
	for segment.ItemOverhead(splitAt)+splitAt > remaining {
		splitAt--
	}
	return splitAt, true
}

// splitTypes maps a buffered item's type to the types of its head fragment
// (written out now) and tail fragment (kept buffered). Only whole blocks and
// trailing fragments ever sit in the buffer.
func splitTypes(typ segment.ItemType) (head, tail segment.ItemType) {
	if typ == segment.ItemBlock {
		return segment.ItemBlockStart, segment.ItemBlockEnd
	}
	return segment.ItemBlockContinuation, segment.ItemBlockEnd
}
