package segment

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPieceParts(t *testing.T) {
	record := make([]byte, RecordSize)
	commitment := make([]byte, CommitmentSize)
	witness := make([]byte, WitnessSize)
	for _, b := range [][]byte{record, commitment, witness} {
		_, err := rand.Read(b)
		require.NoError(t, err)
	}

	piece, err := NewPiece(record, commitment, witness)
	require.NoError(t, err)
	require.NoError(t, piece.Validate())
	require.Equal(t, record, piece.Record())
	require.Equal(t, commitment, piece.Commitment())
	require.Equal(t, witness, piece.Witness())
}

func TestNewPieceRejectsBadSizes(t *testing.T) {
	record := make([]byte, RecordSize)
	commitment := make([]byte, CommitmentSize)
	witness := make([]byte, WitnessSize)

	_, err := NewPiece(record[:1], commitment, witness)
	require.Error(t, err)
	_, err = NewPiece(record, commitment[:1], witness)
	require.Error(t, err)
	_, err = NewPiece(record, commitment, witness[:1])
	require.Error(t, err)
}

func TestPieceValidate(t *testing.T) {
	require.Error(t, Piece(make([]byte, PieceSize-1)).Validate())
	require.NoError(t, Piece(make([]byte, PieceSize)).Validate())
}
