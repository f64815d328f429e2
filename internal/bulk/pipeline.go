// Package bulk attaches one tag to a list of phone numbers, one phone at a
// time, recording an outcome per input.
package bulk

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/internal/resilience"
	"github.com/sells-group/bcproxy/internal/tagging"
	"github.com/sells-group/bcproxy/pkg/botconversa"
	"github.com/sells-group/bcproxy/pkg/phone"
)

// DefaultDelay is the pause after each valid phone.
const DefaultDelay = 250 * time.Millisecond

// ErrEmptyTagName is returned when the tag name is blank after trimming.
var ErrEmptyTagName = eris.New("bulk: tag name is empty")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDelay sets the pause after each valid phone. Negative values are
// treated as zero.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.delay = max(d, 0)
	}
}

// WithSleeper replaces the inter-item wait (for testing).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithProgress registers a callback invoked after every input is settled.
func WithProgress(fn func(done, total int, item model.ItemResult)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// Pipeline runs bulk attaches against one Backend.
type Pipeline struct {
	backend  tagging.Backend
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	progress func(done, total int, item model.ItemResult)
}

// NewPipeline creates a Pipeline over backend.
func NewPipeline(backend tagging.Backend, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend: backend,
		delay:   DefaultDelay,
		sleep:   resilience.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves tagName once, then upserts and tags every valid phone in
// input order. Per-phone failures are recorded in the summary and never
// stop the run. An error is returned only when the tag name is empty or
// the tag cannot be resolved.
//
// When ctx is cancelled mid-run, the remaining phones are recorded as
// errors and the partial summary is returned.
func (p *Pipeline) Run(ctx context.Context, tagName string, phones []string) (*model.BulkSummary, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, ErrEmptyTagName
	}

	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("tag", tagName),
		zap.String("mode", string(p.backend.Mode())),
	)

	normalized := make([]string, len(phones))
	valid := make([]bool, len(phones))
	summary := &model.BulkSummary{
		RunID:   runID,
		Mode:    p.backend.Mode(),
		Invalid: []string{},
		Details: make([]model.ItemResult, 0, len(phones)),
	}
	for i, raw := range phones {
		normalized[i] = phone.Normalize(raw)
		valid[i] = phone.IsValidCanonical(normalized[i])
		if valid[i] {
			summary.Totals.Valid++
		} else {
			summary.Invalid = append(summary.Invalid, normalized[i])
		}
	}
	summary.Totals.Received = len(phones)
	summary.Totals.Invalid = len(summary.Invalid)

	tag, err := p.backend.ResolveTag(ctx, tagName)
	if err != nil {
		return nil, eris.Wrapf(err, "bulk: resolve tag %q", tagName)
	}
	summary.Tag = *tag

	log.Info("bulk: starting",
		zap.Int64("tag_id", tag.ID),
		zap.Int("received", summary.Totals.Received),
		zap.Int("valid", summary.Totals.Valid),
		zap.Int("invalid", summary.Totals.Invalid),
	)

	start := time.Now()
	var cancelled error
	for i, raw := range phones {
		item := model.ItemResult{Input: raw, Phone: normalized[i]}

		switch {
		case !valid[i]:
			item.Status = model.ItemStatusInvalid
		case cancelled != nil:
			item.Status = model.ItemStatusError
			item.Detail = cancelled.Error()
			summary.Totals.Fail++
		default:
			p.process(ctx, tag.ID, &item)
			if item.Status == model.ItemStatusOK {
				summary.Totals.OK++
			} else {
				summary.Totals.Fail++
				log.Warn("bulk: item failed",
					zap.String("phone", phone.Redact(item.Phone)),
					zap.Int("code", item.Code),
					zap.String("detail", item.Detail),
				)
			}
			if err := p.sleep(ctx, p.delay); err != nil {
				cancelled = ctx.Err()
				if cancelled == nil {
					cancelled = err
				}
			}
		}

		summary.Details = append(summary.Details, item)
		if p.progress != nil {
			p.progress(i+1, len(phones), item)
		}
	}

	log.Info("bulk: complete",
		zap.Int("ok", summary.Totals.OK),
		zap.Int("fail", summary.Totals.Fail),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

// process upserts the subscriber and attaches the tag, filling in item.
func (p *Pipeline) process(ctx context.Context, tagID int64, item *model.ItemResult) {
	sub, err := p.backend.UpsertSubscriber(ctx, item.Phone)
	if err == nil {
		var res *model.AttachResult
		res, err = p.backend.AttachTag(ctx, sub.ID, tagID)
		if err == nil {
			item.Status = model.ItemStatusOK
			item.Verified = &res.Verified
			return
		}
	}

	item.Status = model.ItemStatusError
	if se, ok := botconversa.AsStatusError(err); ok {
		item.Code = se.Code
		return
	}
	item.Detail = err.Error()
}
