package segment

import "fmt"

// Piece is a single erasure-coded share of a segment together with the
// commitment to its record and the witness proving the commitment's inclusion
// in the segment root. Pieces are fixed-size and independently retrievable.
//
// Layout: record, then commitment, then witness.
type Piece []byte

// NewPiece assembles a piece from its parts. The parts are copied.
func NewPiece(record, commitment, witness []byte) (Piece, error) {
	if len(record) != RecordSize {
		return nil, fmt.Errorf("invalid record size: %d, expected %d", len(record), RecordSize)
	}
	if len(commitment) != CommitmentSize {
		return nil, fmt.Errorf("invalid commitment size: %d, expected %d", len(commitment), CommitmentSize)
	}
	if len(witness) != WitnessSize {
		return nil, fmt.Errorf("invalid witness size: %d, expected %d", len(witness), WitnessSize)
	}

	piece := make(Piece, 0, PieceSize)
	piece = append(piece, record...)
	piece = append(piece, commitment...)
	return append(piece, witness...), nil
}

// Validate checks that the piece has the expected size.
func (p Piece) Validate() error {
	if len(p) != PieceSize {
		return fmt.Errorf("invalid piece size: %d, expected %d", len(p), PieceSize)
	}
	return nil
}

// Record returns the record part of the piece.
func (p Piece) Record() []byte {
	return p[:RecordSize]
}

// Commitment returns the commitment to the piece's record.
func (p Piece) Commitment() []byte {
	return p[RecordSize : RecordSize+CommitmentSize]
}

// Witness returns the witness proving the record commitment's inclusion in
// the segment root.
func (p Piece) Witness() []byte {
	return p[RecordSize+CommitmentSize:]
}
