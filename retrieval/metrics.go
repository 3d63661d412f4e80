package retrieval

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("retrieval")

type metrics struct {
	pieces       metric.Int64Counter
	backoffs     metric.Int64Counter
	downloadTime metric.Float64Histogram
}

// WithMetrics enables otel metrics reporting on the downloader.
func (d *Downloader) WithMetrics() error {
	pieces, err := meter.Int64Counter("retrieval_pieces_counter",
		metric.WithDescription("downloaded piece attempts, labeled by failure"))
	if err != nil {
		return err
	}

	backoffs, err := meter.Int64Counter("retrieval_backoffs_counter",
		metric.WithDescription("delays taken after degraded piece batches"))
	if err != nil {
		return err
	}

	downloadTime, err := meter.Float64Histogram("retrieval_segment_download_time_hist",
		metric.WithDescription("duration of downloading one segment's pieces"))
	if err != nil {
		return err
	}

	d.metrics = &metrics{
		pieces:       pieces,
		backoffs:     backoffs,
		downloadTime: downloadTime,
	}
	return nil
}

func (m *metrics) observePiece(ctx context.Context, failed bool) {
	if m == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	m.pieces.Add(ctx, 1, metric.WithAttributes(attribute.Bool("failed", failed)))
}

func (m *metrics) observeBackoff(ctx context.Context) {
	if m == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	m.backoffs.Add(ctx, 1)
}

func (m *metrics) observeDownload(ctx context.Context, took time.Duration, failed bool) {
	if m == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	m.downloadTime.Record(ctx, took.Seconds(),
		metric.WithAttributes(attribute.Bool("failed", failed)))
}
