package retrieval

import (
	"context"

	"github.com/autonomys/go-archiving/segment"
)

// PieceResponse is the outcome of fetching one piece. A nil Piece together
// with a nil Err means the piece was not found anywhere on the network.
type PieceResponse struct {
	PieceIndex segment.PieceIndex
	Piece      segment.Piece
	Err        error
}

// PieceGetter fetches pieces from the network.
type PieceGetter interface {
	// GetPieces requests the given piece indexes and streams responses in
	// completion order, so slow peers do not hold up fast ones. Every
	// requested index is yielded exactly once, after which the channel is
	// closed. Timeouts and per-peer concurrency limits are the
	// implementation's responsibility.
	GetPieces(ctx context.Context, indices []segment.PieceIndex) (<-chan PieceResponse, error)
}
