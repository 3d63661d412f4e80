// Package reconstructor rebuilds segment payloads, and the blocks inside
// them, from a sufficient subset of the segment's pieces.
package reconstructor

import (
	"fmt"
	"slices"

	"github.com/autonomys/go-archiving/erasure"
	"github.com/autonomys/go-archiving/segment"
)

// ErrInsufficientPieces reports a reconstruction attempt with fewer present
// piece slots than the recovery threshold.
type ErrInsufficientPieces struct {
	// Present is the number of piece slots that were present.
	Present int
}

func (e ErrInsufficientPieces) Error() string {
	return fmt.Sprintf("insufficient pieces for reconstruction: %d of %d required",
		e.Present, segment.RecordsPerSegment)
}

// ReconstructedContents holds the blocks re-extracted from one segment.
// Blocks straddling a segment boundary surface once their final fragment is
// added.
type ReconstructedContents struct {
	Blocks [][]byte
}

// Reconstructor is the inverse of the archiver. ReconstructSegment is a pure
// function; AddSegment additionally joins block fragments across consecutive
// segments. Reconstruction is CPU-bound, so callers on an I/O path should
// dispatch it to a compute context.
type Reconstructor struct {
	coder *erasure.Coder

	// partialBlock accumulates a block split across segments, nil when no
	// block is mid-assembly.
	partialBlock []byte
}

// New creates a Reconstructor.
func New(coder *erasure.Coder) *Reconstructor {
	return &Reconstructor{coder: coder}
}

// ReconstructSegment recovers a segment's payload from its pieces. The slice
// must have PiecesPerSegment slots with nil marking missing pieces; any
// combination of at least RecordsPerSegment present pieces yields the same
// bytes the archiver produced.
func (r *Reconstructor) ReconstructSegment(pieces []segment.Piece) ([]byte, error) {
	if len(pieces) != segment.PiecesPerSegment {
		return nil, fmt.Errorf("expected %d piece slots, got %d", segment.PiecesPerSegment, len(pieces))
	}

	shards := make([][]byte, segment.PiecesPerSegment)
	present := 0
	missingSource := false
	for i, piece := range pieces {
		if piece == nil {
			if i < segment.RecordsPerSegment {
				missingSource = true
			}
			continue
		}
		if err := piece.Validate(); err != nil {
			return nil, fmt.Errorf("piece at position %d: %w", i, err)
		}
		shards[i] = piece.Record()
		present++
	}
	if present < segment.RecordsPerSegment {
		return nil, ErrInsufficientPieces{Present: present}
	}

	if missingSource {
		if err := r.coder.RecoverSource(shards); err != nil {
			return nil, err
		}
	}

	payload := make([]byte, 0, segment.PayloadSize)
	for _, record := range shards[:segment.RecordsPerSegment] {
		payload = append(payload, record...)
	}
	return payload, nil
}

// AddSegment reconstructs the segment's payload and extracts the blocks
// archived into it. Segments must be added in index order for fragments of
// split blocks to join up.
func (r *Reconstructor) AddSegment(pieces []segment.Piece) (ReconstructedContents, error) {
	payload, err := r.ReconstructSegment(pieces)
	if err != nil {
		return ReconstructedContents{}, err
	}
	items, err := segment.ParsePayload(payload)
	if err != nil {
		return ReconstructedContents{}, err
	}

	var contents ReconstructedContents
	for _, item := range items {
		switch item.Type {
		case segment.ItemBlock:
			if r.partialBlock != nil {
				return ReconstructedContents{}, fmt.Errorf(
					"%w: complete block while another block is mid-assembly", segment.ErrMalformedPayload)
			}
			contents.Blocks = append(contents.Blocks, slices.Clone(item.Data))
		case segment.ItemBlockStart:
			if r.partialBlock != nil {
				return ReconstructedContents{}, fmt.Errorf(
					"%w: block start while another block is mid-assembly", segment.ErrMalformedPayload)
			}
			r.partialBlock = slices.Clone(item.Data)
		case segment.ItemBlockContinuation:
			if r.partialBlock == nil {
				return ReconstructedContents{}, fmt.Errorf(
					"%w: block continuation without a block start", segment.ErrMalformedPayload)
			}
			r.partialBlock = append(r.partialBlock, item.Data...)
		case segment.ItemBlockEnd:
			if r.partialBlock == nil {
				return ReconstructedContents{}, fmt.Errorf(
					"%w: block end without a block start", segment.ErrMalformedPayload)
			}
			block := append(r.partialBlock, item.Data...)
			r.partialBlock = nil
			contents.Blocks = append(contents.Blocks, block)
		}
	}
	return contents, nil
}
