package commitment

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autonomys/go-archiving/segment"
)

func commitAll(t *testing.T, scheme Scheme) [][]byte {
	t.Helper()
	commitments := make([][]byte, segment.PiecesPerSegment)
	for i := range commitments {
		record := make([]byte, segment.RecordSize)
		_, err := rand.Read(record)
		require.NoError(t, err)

		commitment, err := scheme.Commit(record)
		require.NoError(t, err)
		require.Len(t, commitment, segment.CommitmentSize)
		commitments[i] = commitment
	}
	return commitments
}

func TestProveAndVerify(t *testing.T) {
	scheme := NewScheme()
	commitments := commitAll(t, scheme)

	root, witnesses, err := scheme.Prove(commitments)
	require.NoError(t, err)
	require.Len(t, witnesses, segment.PiecesPerSegment)

	for position, commitment := range commitments {
		require.Len(t, witnesses[position], segment.WitnessSize)
		require.True(t, scheme.Verify(root, position, commitment, witnesses[position]),
			"witness at position %d", position)
	}
}

func TestVerifyRejectsForgery(t *testing.T) {
	scheme := NewScheme()
	commitments := commitAll(t, scheme)

	root, witnesses, err := scheme.Prove(commitments)
	require.NoError(t, err)

	t.Run("wrong position", func(t *testing.T) {
		require.False(t, scheme.Verify(root, 1, commitments[0], witnesses[0]))
	})

	t.Run("out of range position", func(t *testing.T) {
		require.False(t, scheme.Verify(root, -1, commitments[0], witnesses[0]))
		require.False(t, scheme.Verify(root, segment.PiecesPerSegment, commitments[0], witnesses[0]))
	})

	t.Run("tampered commitment", func(t *testing.T) {
		tampered := append([]byte(nil), commitments[0]...)
		tampered[0] ^= 0xff
		require.False(t, scheme.Verify(root, 0, tampered, witnesses[0]))
	})

	t.Run("tampered witness", func(t *testing.T) {
		tampered := append([]byte(nil), witnesses[0]...)
		tampered[0] ^= 0xff
		require.False(t, scheme.Verify(root, 0, commitments[0], tampered))
	})

	t.Run("wrong witness size", func(t *testing.T) {
		require.False(t, scheme.Verify(root, 0, commitments[0], witnesses[0][:16]))
	})
}

func TestCommitRejectsBadRecordSize(t *testing.T) {
	scheme := NewScheme()
	_, err := scheme.Commit(make([]byte, segment.RecordSize-1))
	require.Error(t, err)
}

func TestCommitDeterministic(t *testing.T) {
	scheme := NewScheme()
	record := make([]byte, segment.RecordSize)
	_, err := rand.Read(record)
	require.NoError(t, err)

	first, err := scheme.Commit(record)
	require.NoError(t, err)
	second, err := scheme.Commit(record)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
