// Package erasure wraps the systematic Reed-Solomon codec used to expand
// segment records into pieces and to recover them from any sufficiently
// large subset.
package erasure

import (
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/autonomys/go-archiving/segment"
)

// Coder erasure-codes segment records with the fixed
// RecordsPerSegment-of-PiecesPerSegment geometry. It is safe for concurrent
// use.
type Coder struct {
	enc reedsolomon.Encoder
}

// NewCoder creates a Coder for the segment geometry.
func NewCoder() (*Coder, error) {
	enc, err := reedsolomon.New(
		segment.RecordsPerSegment,
		segment.PiecesPerSegment-segment.RecordsPerSegment,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reed-solomon encoder: %w", err)
	}
	return &Coder{enc: enc}, nil
}

// Extend computes the parity records for RecordsPerSegment source records.
func (c *Coder) Extend(source [][]byte) ([][]byte, error) {
	if len(source) != segment.RecordsPerSegment {
		return nil, fmt.Errorf("expected %d source records, got %d", segment.RecordsPerSegment, len(source))
	}

	shards := make([][]byte, segment.PiecesPerSegment)
	for i, record := range source {
		if len(record) != segment.RecordSize {
			return nil, fmt.Errorf("invalid record size at position %d: %d, expected %d",
				i, len(record), segment.RecordSize)
		}
		shards[i] = record
	}
	for i := segment.RecordsPerSegment; i < segment.PiecesPerSegment; i++ {
		shards[i] = make([]byte, segment.RecordSize)
	}

	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encoding parity records: %w", err)
	}
	return shards[segment.RecordsPerSegment:], nil
}

// RecoverSource fills the missing source records of shards in place. The
// slice must have PiecesPerSegment slots with nil marking missing positions;
// any combination of RecordsPerSegment present shards suffices.
func (c *Coder) RecoverSource(shards [][]byte) error {
	if len(shards) != segment.PiecesPerSegment {
		return fmt.Errorf("expected %d shard slots, got %d", segment.PiecesPerSegment, len(shards))
	}
	if err := c.enc.ReconstructData(shards); err != nil {
		return fmt.Errorf("recovering source records: %w", err)
	}
	return nil
}
