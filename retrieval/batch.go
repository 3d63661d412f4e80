package retrieval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autonomys/go-archiving/segment"
)

// FetchFunc fetches a single piece. Returning a nil piece with a nil error
// means the piece was not found.
type FetchFunc func(ctx context.Context, pieceIndex segment.PieceIndex) (segment.Piece, error)

// batchGetter adapts a single-piece FetchFunc into the batch streaming
// PieceGetter API by fanning requests out and delivering responses in
// completion order.
type batchGetter struct {
	fetch       FetchFunc
	concurrency int
}

// NewBatchGetter wraps fetch into a PieceGetter issuing at most concurrency
// simultaneous fetches per batch.
func NewBatchGetter(fetch FetchFunc, concurrency int) PieceGetter {
	return &batchGetter{fetch: fetch, concurrency: concurrency}
}

func (g *batchGetter) GetPieces(
	ctx context.Context,
	indices []segment.PieceIndex,
) (<-chan PieceResponse, error) {
	responses := make(chan PieceResponse)

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	go func() {
		defer close(responses)
		for _, pieceIndex := range indices {
			pieceIndex := pieceIndex
			eg.Go(func() error {
				piece, err := g.fetch(ctx, pieceIndex)
				select {
				case responses <- PieceResponse{PieceIndex: pieceIndex, Piece: piece, Err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		eg.Wait() //nolint:errcheck // fetch errors travel in responses
	}()
	return responses, nil
}
