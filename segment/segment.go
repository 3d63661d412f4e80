// Package segment defines the data model shared between the archiver, the
// reconstructor and piece retrieval: fixed-size records and pieces, segment
// payload framing and global piece addressing.
package segment

const (
	// RecordSize is the size of a raw record in bytes.
	RecordSize = 32 << 10

	// RecordsPerSegment is the number of raw records in one segment. It is
	// also the minimum number of pieces required to reconstruct a segment.
	RecordsPerSegment = 128

	// PiecesPerSegment is the number of pieces a segment expands into.
	// Positions [0, RecordsPerSegment) hold source pieces, the rest parity.
	PiecesPerSegment = RecordsPerSegment * 2

	// PayloadSize is the size of a segment's raw payload in bytes.
	PayloadSize = RecordSize * RecordsPerSegment

	// CommitmentSize is the size of a record commitment in bytes.
	CommitmentSize = 32

	// WitnessSize is the size of a record's inclusion witness: one 32-byte
	// aunt hash per merkle tree level for PiecesPerSegment leaves.
	WitnessSize = 32 * 8

	// PieceSize is the size of a serialized piece:
	// record, commitment and witness back to back.
	PieceSize = RecordSize + CommitmentSize + WitnessSize
)
