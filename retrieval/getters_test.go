package retrieval

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autonomys/go-archiving/archiver"
	"github.com/autonomys/go-archiving/commitment"
	"github.com/autonomys/go-archiving/erasure"
	"github.com/autonomys/go-archiving/segment"
)

func collectResponses(t *testing.T, responses <-chan PieceResponse) map[segment.PieceIndex]PieceResponse {
	t.Helper()
	byIndex := make(map[segment.PieceIndex]PieceResponse)
	for resp := range responses {
		_, seen := byIndex[resp.PieceIndex]
		require.False(t, seen, "piece index %d yielded twice", resp.PieceIndex)
		byIndex[resp.PieceIndex] = resp
	}
	return byIndex
}

func TestBatchGetter(t *testing.T) {
	errBroken := errors.New("broken peer")
	getter := NewBatchGetter(func(_ context.Context, pieceIndex segment.PieceIndex) (segment.Piece, error) {
		switch pieceIndex.Position() % 3 {
		case 0:
			return testPiece(pieceIndex), nil
		case 1:
			return nil, nil
		default:
			return nil, errBroken
		}
	}, 8)

	indices := segment.SegmentIndex(0).SourceFirstPieceIndexes()
	responses, err := getter.GetPieces(context.Background(), indices)
	require.NoError(t, err)

	byIndex := collectResponses(t, responses)
	require.Len(t, byIndex, len(indices))
	for _, pieceIndex := range indices {
		resp := byIndex[pieceIndex]
		switch pieceIndex.Position() % 3 {
		case 0:
			require.NoError(t, resp.Err)
			require.NotNil(t, resp.Piece)
		case 1:
			require.NoError(t, resp.Err)
			require.Nil(t, resp.Piece)
		default:
			require.ErrorIs(t, resp.Err, errBroken)
		}
	}
}

func TestCachedGetter(t *testing.T) {
	inner := &testGetter{fail: func(pieceIndex segment.PieceIndex) bool {
		// piece at position 1 is nowhere to be found
		return pieceIndex.Position() == 1
	}}
	cached, err := NewCachedGetter(inner, 16)
	require.NoError(t, err)

	indices := []segment.PieceIndex{0, 1, 2}

	responses, err := cached.GetPieces(context.Background(), indices)
	require.NoError(t, err)
	first := collectResponses(t, responses)
	require.Len(t, first, 3)
	require.Len(t, inner.batches, 1)
	require.Len(t, inner.batches[0], 3)

	responses, err = cached.GetPieces(context.Background(), indices)
	require.NoError(t, err)
	second := collectResponses(t, responses)
	require.Len(t, second, 3)

	// only the not-found index goes to the inner getter again
	require.Len(t, inner.batches, 2)
	require.Equal(t, []segment.PieceIndex{1}, inner.batches[1])
	require.Equal(t, first[0].Piece, second[0].Piece)
	require.Equal(t, first[2].Piece, second[2].Piece)
	require.Nil(t, second[1].Piece)
}

func TestVerifyingGetter(t *testing.T) {
	coder, err := erasure.NewCoder()
	require.NoError(t, err)
	scheme := commitment.NewScheme()

	block := make([]byte, segment.PayloadSize/4)
	_, err = rand.Read(block)
	require.NoError(t, err)

	archived, err := archiver.New(coder, scheme).
		AddBlock(block, segment.BlockObjectMapping{}, true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	seg := archived[0]

	tamperedPosition := uint32(3)
	inner := pieceGetterFunc(func(_ context.Context, indices []segment.PieceIndex) (<-chan PieceResponse, error) {
		responses := make(chan PieceResponse, len(indices))
		for _, pieceIndex := range indices {
			piece := seg.Pieces[pieceIndex.Position()]
			if pieceIndex.Position() == tamperedPosition {
				piece = append(segment.Piece(nil), piece...)
				piece[0] ^= 0xff
			}
			responses <- PieceResponse{PieceIndex: pieceIndex, Piece: piece}
		}
		close(responses)
		return responses, nil
	})

	roots := segmentRootGetterFunc(func(_ context.Context, segmentIndex segment.SegmentIndex) ([]byte, error) {
		require.Equal(t, seg.Header.SegmentIndex, segmentIndex)
		return seg.Header.SegmentRoot, nil
	})

	verifying := NewVerifyingGetter(inner, scheme, roots)
	indices := []segment.PieceIndex{0, 3, 200}
	responses, err := verifying.GetPieces(context.Background(), indices)
	require.NoError(t, err)

	byIndex := collectResponses(t, responses)
	require.Len(t, byIndex, 3)
	require.NotNil(t, byIndex[0].Piece)
	require.NotNil(t, byIndex[200].Piece)
	require.Nil(t, byIndex[3].Piece, "tampered piece must degrade to not-found")
	require.NoError(t, byIndex[3].Err)
}

func TestVerifyingGetterRootError(t *testing.T) {
	errNoRoot := errors.New("unknown segment")
	inner := &testGetter{}
	roots := segmentRootGetterFunc(func(context.Context, segment.SegmentIndex) ([]byte, error) {
		return nil, errNoRoot
	})

	verifying := NewVerifyingGetter(inner, commitment.NewScheme(), roots)
	responses, err := verifying.GetPieces(context.Background(), []segment.PieceIndex{0})
	require.NoError(t, err)

	byIndex := collectResponses(t, responses)
	require.Nil(t, byIndex[0].Piece)
	require.ErrorIs(t, byIndex[0].Err, errNoRoot)
}

type pieceGetterFunc func(context.Context, []segment.PieceIndex) (<-chan PieceResponse, error)

func (f pieceGetterFunc) GetPieces(
	ctx context.Context,
	indices []segment.PieceIndex,
) (<-chan PieceResponse, error) {
	return f(ctx, indices)
}

type segmentRootGetterFunc func(context.Context, segment.SegmentIndex) ([]byte, error)

func (f segmentRootGetterFunc) SegmentRoot(
	ctx context.Context,
	segmentIndex segment.SegmentIndex,
) ([]byte, error) {
	return f(ctx, segmentIndex)
}
