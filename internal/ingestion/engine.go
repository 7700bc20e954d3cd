package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/creatorpulse/creatorpulse/internal/config"
	"github.com/creatorpulse/creatorpulse/internal/instagram"
	"github.com/creatorpulse/creatorpulse/internal/metrics"
	"github.com/creatorpulse/creatorpulse/internal/models"
)

// MediaPageSize is the fixed number of recent posts requested per sync.
const MediaPageSize = 50

var (
	// ErrExternalAPI indicates the provider's media listing call failed, so
	// the whole sync run was aborted. Previously stored posts are untouched.
	ErrExternalAPI = errors.New("external API error")

	// ErrAccountNotFound indicates a sync was requested for an unknown account.
	ErrAccountNotFound = errors.New("account not found")
)

// AccountStore is the account lookup the engine needs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.InstagramAccount, error)
}

// PostStore receives normalized posts. Upsert must be idempotent on
// (account id, external post id).
type PostStore interface {
	Upsert(ctx context.Context, post *models.InstagramPost) error
}

// MediaFetcher lists an account's most recent media.
type MediaFetcher interface {
	FetchRecentMedia(ctx context.Context, token string, limit int) ([]instagram.Media, error)
}

// Engine pulls recent posts for linked accounts and upserts them into the
// post store. Sync requests are queued and drained by a fixed worker pool;
// runs for the same account are collapsed through a singleflight group so at
// most one sync per account is in flight at a time.
type Engine struct {
	accounts  AccountStore
	posts     PostStore
	provider  MediaFetcher
	collector *metrics.Collector
	logger    *slog.Logger

	jobs    chan string
	workers int
	wg      sync.WaitGroup
	group   singleflight.Group

	retryPolicy RetryPolicy
	now         func() time.Time
}

// NewEngine creates a sync engine. The collector may be nil in tests.
func NewEngine(accounts AccountStore, posts PostStore, provider MediaFetcher, collector *metrics.Collector, logger *slog.Logger, cfg config.SyncConfig) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Engine{
		accounts:    accounts,
		posts:       posts,
		provider:    provider,
		collector:   collector,
		logger:      logger,
		jobs:        make(chan string, queueSize),
		workers:     workers,
		retryPolicy: DefaultRetryPolicy(),
		now:         time.Now,
	}
}

// Start launches the worker pool. Workers run until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("starting sync engine", "workers", e.workers, "queue_size", cap(e.jobs))
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
}

// Stop blocks until all workers have exited. Call after cancelling the
// context passed to Start.
func (e *Engine) Stop() {
	e.wg.Wait()
	e.logger.Info("sync engine stopped")
}

// TriggerSync schedules a sync for the account and returns immediately. When
// the queue is full the request is dropped with a warning; the caller can
// re-trigger later and idempotent upserts make missed runs harmless.
func (e *Engine) TriggerSync(accountID string) {
	select {
	case e.jobs <- accountID:
		e.logger.Debug("sync scheduled", "account_id", accountID)
	default:
		e.logger.Warn("sync queue full, dropping request", "account_id", accountID)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case accountID := <-e.jobs:
			if err := e.SyncNow(ctx, accountID); err != nil {
				// Sync is fire-and-forget; the triggering request never sees
				// this error, so it must be logged here for operability.
				e.logger.Error("sync failed", "account_id", accountID, "error", err)
			}
		}
	}
}

// SyncNow runs one sync pass for the account, collapsing concurrent calls
// for the same account into a single run.
func (e *Engine) SyncNow(ctx context.Context, accountID string) error {
	_, err, shared := e.group.Do(accountID, func() (interface{}, error) {
		return nil, e.syncAccount(ctx, accountID)
	})
	if shared {
		e.logger.Debug("sync run shared with concurrent trigger", "account_id", accountID)
	}
	return err
}

func (e *Engine) syncAccount(ctx context.Context, accountID string) error {
	start := e.now()

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		e.observe("error", start)
		return fmt.Errorf("load account: %w", err)
	}
	if account == nil {
		e.observe("error", start)
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	var media []instagram.Media
	err = Retry(ctx, e.retryPolicy, func() error {
		items, err := e.provider.FetchRecentMedia(ctx, account.AccessToken, MediaPageSize)
		if err != nil {
			if isTransient(err) {
				return NewRetryableError(err)
			}
			return err
		}
		media = items
		return nil
	})
	if err != nil {
		e.observe("error", start)
		return fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}

	syncedAt := e.now()
	upserted := 0
	failed := 0
	for i := range media {
		post := normalizePost(&media[i], account.ID, syncedAt)
		// Each upsert is independent; one bad item must not block the rest.
		if err := e.posts.Upsert(ctx, post); err != nil {
			e.logger.Error("post upsert failed",
				"account_id", account.ID,
				"ig_post_id", post.IGPostID,
				"error", err)
			failed++
			continue
		}
		upserted++
	}

	if e.collector != nil {
		e.collector.AddPostsUpserted(upserted)
	}
	e.observe("ok", start)

	e.logger.Info("sync complete",
		"account_id", account.ID,
		"username", account.Username,
		"fetched", len(media),
		"upserted", upserted,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (e *Engine) observe(status string, start time.Time) {
	if e.collector != nil {
		e.collector.ObserveSync(status, time.Since(start))
	}
}

// normalizePost maps one provider media item onto a post row. Missing counts
// stay zero; a missing or unparsable timestamp falls back to the sync time,
// which keeps best-effort data instead of dropping the item.
func normalizePost(item *instagram.Media, accountID string, syncedAt time.Time) *models.InstagramPost {
	postedAt := syncedAt
	if item.Timestamp != "" {
		if parsed, err := parseMediaTimestamp(item.Timestamp); err == nil {
			postedAt = parsed
		}
	}

	return &models.InstagramPost{
		IGPostID:     item.ID,
		AccountID:    accountID,
		Caption:      item.Caption,
		MediaType:    item.MediaType,
		MediaURL:     item.MediaURL,
		LikeCount:    item.LikeCount,
		CommentCount: item.CommentCount,
		PostedAt:     postedAt,
		FetchedAt:    syncedAt,
	}
}

// parseMediaTimestamp accepts RFC 3339 and the provider's offset variant
// without a colon (2017-08-31T18:10:00+0000).
func parseMediaTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05-0700", raw)
}

// isTransient reports whether a provider error is worth retrying.
func isTransient(err error) bool {
	var apiErr *instagram.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}
