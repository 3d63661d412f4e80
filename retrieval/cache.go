package retrieval

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/autonomys/go-archiving/segment"
)

// CachedGetter answers piece requests from an in-memory LRU before forwarding
// the misses to the inner getter. Pieces are immutable, so cached entries
// never expire.
type CachedGetter struct {
	inner PieceGetter
	cache *lru.Cache[segment.PieceIndex, segment.Piece]
}

// NewCachedGetter creates a CachedGetter holding up to size pieces.
func NewCachedGetter(inner PieceGetter, size int) (*CachedGetter, error) {
	cache, err := lru.New[segment.PieceIndex, segment.Piece](size)
	if err != nil {
		return nil, err
	}
	return &CachedGetter{inner: inner, cache: cache}, nil
}

func (g *CachedGetter) GetPieces(
	ctx context.Context,
	indices []segment.PieceIndex,
) (<-chan PieceResponse, error) {
	hits := make([]PieceResponse, 0, len(indices))
	misses := make([]segment.PieceIndex, 0, len(indices))
	for _, pieceIndex := range indices {
		if piece, ok := g.cache.Get(pieceIndex); ok {
			hits = append(hits, PieceResponse{PieceIndex: pieceIndex, Piece: piece})
		} else {
			misses = append(misses, pieceIndex)
		}
	}

	var inner <-chan PieceResponse
	if len(misses) > 0 {
		var err error
		inner, err = g.inner.GetPieces(ctx, misses)
		if err != nil {
			return nil, err
		}
	}

	responses := make(chan PieceResponse, len(hits))
	go func() {
		defer close(responses)
		for _, hit := range hits {
			select {
			case responses <- hit:
			case <-ctx.Done():
				return
			}
		}
		if inner == nil {
			return
		}
		for resp := range inner {
			if resp.Err == nil && resp.Piece != nil {
				g.cache.Add(resp.PieceIndex, resp.Piece)
			}
			select {
			case responses <- resp:
			case <-ctx.Done():
				return
			}
		}
	}()
	return responses, nil
}
