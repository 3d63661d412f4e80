package retrieval

import (
	"context"
	"fmt"

	"github.com/autonomys/go-archiving/commitment"
	"github.com/autonomys/go-archiving/segment"
)

// SegmentRootGetter provides the segment root a piece is verified against,
// typically backed by a local store of segment headers.
type SegmentRootGetter interface {
	SegmentRoot(ctx context.Context, segmentIndex segment.SegmentIndex) ([]byte, error)
}

// VerifyingGetter checks every fetched piece's commitment witness against its
// segment root and degrades invalid pieces to not-found, so pieces forged by
// adversarial peers never count toward the recovery threshold.
type VerifyingGetter struct {
	inner  PieceGetter
	scheme commitment.Scheme
	roots  SegmentRootGetter
}

// NewVerifyingGetter wraps inner with per-piece verification.
func NewVerifyingGetter(inner PieceGetter, scheme commitment.Scheme, roots SegmentRootGetter) *VerifyingGetter {
	return &VerifyingGetter{inner: inner, scheme: scheme, roots: roots}
}

func (g *VerifyingGetter) GetPieces(
	ctx context.Context,
	indices []segment.PieceIndex,
) (<-chan PieceResponse, error) {
	inner, err := g.inner.GetPieces(ctx, indices)
	if err != nil {
		return nil, err
	}

	responses := make(chan PieceResponse)
	go func() {
		defer close(responses)
		for resp := range inner {
			resp = g.verify(ctx, resp)
			select {
			case responses <- resp:
			case <-ctx.Done():
				return
			}
		}
	}()
	return responses, nil
}

func (g *VerifyingGetter) verify(ctx context.Context, resp PieceResponse) PieceResponse {
	if resp.Err != nil || resp.Piece == nil {
		return resp
	}
	if err := resp.Piece.Validate(); err != nil {
		log.Warnw("received malformed piece", "piece_index", resp.PieceIndex, "err", err)
		resp.Piece = nil
		return resp
	}

	root, err := g.roots.SegmentRoot(ctx, resp.PieceIndex.SegmentIndex())
	if err != nil {
		resp.Piece = nil
		resp.Err = fmt.Errorf("getting segment root: %w", err)
		return resp
	}

	position := int(resp.PieceIndex.Position())
	if !g.scheme.Verify(root, position, resp.Piece.Commitment(), resp.Piece.Witness()) {
		log.Warnw("received piece with invalid witness", "piece_index", resp.PieceIndex)
		resp.Piece = nil
	}
	return resp
}
