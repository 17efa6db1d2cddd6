package linkcheck

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/metrics"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	checkConcurrency = 4
	maxBatchSize     = 100 // largest page the post stores return
)

// Link check results
const (
	resultReachable = "reachable"
	resultGone      = "gone"
	resultError     = "error"
)

type PostLister interface {
	ListWithNames(ctx context.Context, f repositories.PostFilter) ([]models.SponsoredPostWithNames, error)
}

type URLChecker interface {
	Check(ctx context.Context, url string) (*Result, error)
}

// Monitor walks approved sponsored posts and reports the ones whose URL
// has disappeared. Posts are never modified; the report goes out as a
// workflow event for the vendor, the vlogger and admins.
type Monitor struct {
	posts     PostLister
	checker   URLChecker
	publisher events.Publisher
	batchSize int
	log       *zap.Logger
}

func NewMonitor(posts PostLister, checker URLChecker, publisher events.Publisher, batchSize int, log *zap.Logger) *Monitor {
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	return &Monitor{posts: posts, checker: checker, publisher: publisher, batchSize: batchSize, log: log}
}

type RunResult struct {
	Checked     int
	Unreachable int
	Failed      int
}

func (m *Monitor) Run(ctx context.Context) (RunResult, error) {
	var checked, gone, failed atomic.Int64
	status := models.PostStatusApproved

	// Paging ends on an empty page, never on a short one.
	offset := 0
	for {
		batch, err := m.posts.ListWithNames(ctx, repositories.PostFilter{
			Status: &status,
			Limit:  m.batchSize,
			Offset: offset,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("list approved posts: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		offset += len(batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(checkConcurrency)
		for _, post := range batch {
			g.Go(func() error {
				res, err := m.checker.Check(gctx, post.URL)
				checked.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
					metrics.LinkChecks.WithLabelValues(resultError).Inc()
					m.log.Warn("link check failed",
						zap.String("post_id", post.ID.String()),
						zap.String("url", post.URL),
						zap.Error(err),
					)
				case res.State == StateGone:
					gone.Add(1)
					metrics.LinkChecks.WithLabelValues(resultGone).Inc()
					m.reportGone(gctx, post, res)
				default:
					metrics.LinkChecks.WithLabelValues(resultReachable).Inc()
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
	}

	return RunResult{
		Checked:     int(checked.Load()),
		Unreachable: int(gone.Load()),
		Failed:      int(failed.Load()),
	}, nil
}

func (m *Monitor) reportGone(ctx context.Context, post models.SponsoredPostWithNames, res *Result) {
	m.log.Info("sponsored post link unreachable",
		zap.String("post_id", post.ID.String()),
		zap.String("url", post.URL),
		zap.Int("http_status", res.HTTPStatus),
	)

	err := m.publisher.Publish(ctx, events.StreamWorkflow, events.Event{
		Type: events.EventPostLinkUnreachable,
		Payload: map[string]any{
			"post_id":     post.ID.String(),
			"vendor_id":   post.VendorID.String(),
			"vlogger_id":  post.VloggerID.String(),
			"url":         post.URL,
			"http_status": res.HTTPStatus,
			"checked_at":  res.FetchedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		metrics.DerivedWriteFailures.WithLabelValues(metrics.DerivedEvent).Inc()
		m.log.Warn("failed to publish link event", zap.String("post_id", post.ID.String()), zap.Error(err))
	}
}
