// Package commitment implements the per-record commitments carried by pieces:
// a blake3 hash of the record plus a merkle witness proving the hash's
// inclusion in the segment root. A piece can thereby be verified on its own,
// without the rest of the segment.
package commitment

import (
	"crypto/sha256"
	"fmt"

	"github.com/celestiaorg/go-square/merkle"
	"lukechampine.com/blake3"

	"github.com/autonomys/go-archiving/segment"
)

// Scheme commits to records and proves/verifies their membership in a
// segment.
type Scheme interface {
	// Commit produces the commitment to a single record.
	Commit(record []byte) ([]byte, error)
	// Prove builds the segment root over all PiecesPerSegment record
	// commitments and one inclusion witness per position.
	Prove(commitments [][]byte) (root []byte, witnesses [][]byte, err error)
	// Verify checks that commitment sits at position under root.
	Verify(root []byte, position int, commitment, witness []byte) bool
}

// NewScheme returns the default blake3+merkle scheme.
func NewScheme() Scheme {
	return blake3Scheme{}
}

type blake3Scheme struct{}

func (blake3Scheme) Commit(record []byte) ([]byte, error) {
	if len(record) != segment.RecordSize {
		return nil, fmt.Errorf("invalid record size: %d, expected %d", len(record), segment.RecordSize)
	}
	sum := blake3.Sum256(record)
	return sum[:], nil
}

func (blake3Scheme) Prove(commitments [][]byte) ([]byte, [][]byte, error) {
	if len(commitments) != segment.PiecesPerSegment {
		return nil, nil, fmt.Errorf("expected %d commitments, got %d",
			segment.PiecesPerSegment, len(commitments))
	}

	root, proofs := merkle.ProofsFromByteSlices(commitments)
	witnesses := make([][]byte, len(proofs))
	for i, proof := range proofs {
		witness := make([]byte, 0, segment.WitnessSize)
		for _, aunt := range proof.Aunts {
			witness = append(witness, aunt...)
		}
		if len(witness) != segment.WitnessSize {
			return nil, nil, fmt.Errorf("unexpected witness size at position %d: %d", i, len(witness))
		}
		witnesses[i] = witness
	}
	return root, witnesses, nil
}

func (blake3Scheme) Verify(root []byte, position int, commitment, witness []byte) bool {
	if position < 0 || position >= segment.PiecesPerSegment {
		return false
	}
	if len(commitment) != segment.CommitmentSize || len(witness) != segment.WitnessSize {
		return false
	}

	aunts := make([][]byte, 0, segment.WitnessSize/sha256.Size)
	for offset := 0; offset < len(witness); offset += sha256.Size {
		// Cap each aunt's capacity: merkle's innerHash appends to its left
		// argument, and an aunt with spare capacity would let that append
		// overwrite the following aunts in the shared witness buffer.
		aunts = append(aunts, witness[offset:offset+sha256.Size:offset+sha256.Size])
	}
	proof := merkle.Proof{
		Total:    segment.PiecesPerSegment,
		Index:    int64(position),
		LeafHash: leafHash(commitment),
		Aunts:    aunts,
	}
	return proof.Verify(root, commitment) == nil
}

// leafHash computes the RFC 6962 leaf hash merkle uses internally, so a
// witness can be turned back into a full proof.
func leafHash(leaf []byte) []byte {
	h := sha256.New()
	h.Write([]byte{0})
	h.Write(leaf)
	return h.Sum(nil)
}
