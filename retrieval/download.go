// Package retrieval downloads enough pieces of an archived segment from an
// unreliable network to reconstruct it.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/workerpool"
	logging "github.com/ipfs/go-log/v2"

	"github.com/autonomys/go-archiving/erasure"
	"github.com/autonomys/go-archiving/reconstructor"
	"github.com/autonomys/go-archiving/segment"
)

var log = logging.Logger("retrieval")

// pieceDownloadDelay is how long we wait after a failed batch before
// requesting more pieces, to avoid hammering a degraded network.
const pieceDownloadDelay = time.Second

// reconstructWorkersLimit caps concurrently running segment reconstructions.
const reconstructWorkersLimit = 4

// reconstructPool runs CPU-bound segment reconstruction off the download
// path, shared by all downloaders.
var reconstructPool = workerpool.New(reconstructWorkersLimit)

// ErrNotEnoughPieces reports a download that exhausted all of the segment's
// piece indexes before reaching the recovery threshold.
type ErrNotEnoughPieces struct {
	// SegmentIndex is the segment we were trying to download.
	SegmentIndex segment.SegmentIndex
	// Downloaded is the number of pieces that were downloaded.
	Downloaded int
}

func (e ErrNotEnoughPieces) Error() string {
	return fmt.Sprintf("not enough (%d/%d) pieces for segment %d",
		e.Downloaded, segment.RecordsPerSegment, e.SegmentIndex)
}

// Downloader acquires segments piece by piece over a PieceGetter. Concurrent
// downloads of different segments are independent; the downloader coordinates
// nothing across segments.
type Downloader struct {
	coder   *erasure.Coder
	clock   clock.Clock
	metrics *metrics
}

// NewDownloader creates a Downloader reconstructing with the given coder.
func NewDownloader(coder *erasure.Coder) *Downloader {
	return &Downloader{coder: coder, clock: clock.New()}
}

// DownloadSegment downloads enough pieces of the segment and reconstructs its
// payload. Reconstruction runs on a shared compute pool so concurrent
// downloads keep making network progress meanwhile.
func (d *Downloader) DownloadSegment(
	ctx context.Context,
	segmentIndex segment.SegmentIndex,
	getter PieceGetter,
) ([]byte, error) {
	pieces, err := d.DownloadSegmentPieces(ctx, segmentIndex, getter)
	if err != nil {
		return nil, err
	}

	type result struct {
		payload []byte
		err     error
	}
	resCh := make(chan result, 1)
	rec := reconstructor.New(d.coder)
	reconstructPool.Submit(func() {
		payload, err := rec.ReconstructSegment(pieces)
		resCh <- result{payload: payload, err: err}
	})

	select {
	case res := <-resCh:
		return res.payload, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DownloadSegmentPieces downloads pieces of the segment such that it can be
// reconstructed afterward, preferring source pieces. It requests one batch of
// exactly the still-needed size at a time and consumes responses in
// completion order. Failed indexes are never re-requested; later batches draw
// further indexes instead, with a fixed delay after a degraded batch. Returns
// a sparse PiecesPerSegment slice, or ErrNotEnoughPieces if the indexes ran
// out first.
func (d *Downloader) DownloadSegmentPieces(
	ctx context.Context,
	segmentIndex segment.SegmentIndex,
	getter PieceGetter,
) ([]segment.Piece, error) {
	const required = segment.RecordsPerSegment

	start := d.clock.Now()
	pieces := make([]segment.Piece, segment.PiecesPerSegment)
	downloaded := 0
	cursor := newPieceCursor(segmentIndex)

	for !cursor.empty() && downloaded != required {
		batch := cursor.take(required - downloaded)
		responses, err := getter.GetPieces(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("requesting pieces: %w", err)
		}

		degraded := false
	batchLoop:
		for {
			select {
			case resp, ok := <-responses:
				if !ok {
					break batchLoop
				}
				switch {
				case resp.Err != nil:
					log.Debugw("failed to get piece", "piece_index", resp.PieceIndex, "err", resp.Err)
					degraded = true
				case resp.Piece == nil:
					log.Debugw("piece was not found", "piece_index", resp.PieceIndex)
					degraded = true
				case resp.PieceIndex.SegmentIndex() != segmentIndex:
					log.Warnw("received piece from wrong segment",
						"piece_index", resp.PieceIndex, "segment_index", segmentIndex)
					degraded = true
				default:
					pieces[resp.PieceIndex.Position()] = resp.Piece
					downloaded++
				}
				d.metrics.observePiece(ctx, resp.Err != nil || resp.Piece == nil)
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if degraded {
			next, _ := cursor.peek()
			log.Debugw("waiting before requesting more pieces",
				"segment_index", segmentIndex,
				"next_piece_index", next,
				"downloaded", downloaded,
				"required", required,
				"delay", pieceDownloadDelay,
			)
			d.metrics.observeBackoff(ctx)
			select {
			case <-d.clock.After(pieceDownloadDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if downloaded < required {
		log.Debugw("failed to retrieve pieces for segment",
			"segment_index", segmentIndex,
			"downloaded", downloaded,
			"required", required,
		)
		d.metrics.observeDownload(ctx, d.clock.Since(start), true)
		return nil, ErrNotEnoughPieces{SegmentIndex: segmentIndex, Downloaded: downloaded}
	}

	d.metrics.observeDownload(ctx, d.clock.Since(start), false)
	return pieces, nil
}
