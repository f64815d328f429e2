package tagging

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// Outcome is how far an attach strategy got.
type Outcome int

const (
	// OutcomeFailed means the strategy's call failed and nothing was verified.
	OutcomeFailed Outcome = iota
	// OutcomeUnverified means the call went through but the tag did not show
	// up when the subscriber's tags were read back.
	OutcomeUnverified
	// OutcomeVerified means the tag was read back on the subscriber.
	OutcomeVerified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeUnverified:
		return "unverified"
	case OutcomeVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// StrategyResult is what one attach strategy produced. Err may be set
// alongside any outcome.
type StrategyResult struct {
	Outcome  Outcome
	Response map[string]any
	Err      error
}

// AttachStrategy is one way of attaching a tag to a subscriber.
type AttachStrategy interface {
	Name() string
	Attempt(ctx context.Context, subscriberID, tagID int64) StrategyResult
}

// Verifier reports whether a tag is readable on a subscriber.
type Verifier func(ctx context.Context, subscriberID, tagID int64) bool

// dedicatedStrategy POSTs to /{res}/{s}/tags/{t}/.
type dedicatedStrategy struct {
	api    API
	res    botconversa.Resource
	verify Verifier
	// verifyOnError checks the subscriber's tags even when the call failed;
	// the tag sometimes lands despite an error response.
	verifyOnError bool
}

func (s *dedicatedStrategy) Name() string { return "dedicated-" + string(s.res) }

func (s *dedicatedStrategy) Attempt(ctx context.Context, subscriberID, tagID int64) StrategyResult {
	resp, err := s.api.AttachTag(ctx, s.res, subscriberID, tagID)
	if err != nil && !s.verifyOnError {
		return StrategyResult{Outcome: OutcomeFailed, Err: err}
	}
	if s.verify(ctx, subscriberID, tagID) {
		return StrategyResult{Outcome: OutcomeVerified, Response: resp, Err: err}
	}
	if err != nil {
		return StrategyResult{Outcome: OutcomeFailed, Err: err}
	}
	return StrategyResult{Outcome: OutcomeUnverified, Response: resp}
}

// updateStrategy PATCHes the subscriber record with {"tags": [t]}.
type updateStrategy struct {
	api    API
	res    botconversa.Resource
	verify Verifier
}

func (s *updateStrategy) Name() string { return "update-" + string(s.res) }

func (s *updateStrategy) Attempt(ctx context.Context, subscriberID, tagID int64) StrategyResult {
	resp, err := s.api.UpdateSubscriberTags(ctx, s.res, subscriberID, []int64{tagID})
	if err != nil {
		return StrategyResult{Outcome: OutcomeFailed, Err: err}
	}
	if s.verify(ctx, subscriberID, tagID) {
		return StrategyResult{Outcome: OutcomeVerified, Response: resp}
	}
	return StrategyResult{Outcome: OutcomeUnverified, Response: resp}
}

// TagAttacher runs attach strategies in order until one is verified.
type TagAttacher struct {
	strategies []AttachStrategy
}

// NewTagAttacher creates a TagAttacher with the default strategy order:
// dedicated endpoint (singular, then plural), then a subscriber update
// (singular, then plural). Each is verified through lister.
func NewTagAttacher(api API, lister *TagLister) *TagAttacher {
	verify := Verifier(lister.Contains)
	return NewTagAttacherWithStrategies(
		&dedicatedStrategy{api: api, res: botconversa.Singular, verify: verify, verifyOnError: true},
		&dedicatedStrategy{api: api, res: botconversa.Plural, verify: verify},
		&updateStrategy{api: api, res: botconversa.Singular, verify: verify},
		&updateStrategy{api: api, res: botconversa.Plural, verify: verify},
	)
}

// NewTagAttacherWithStrategies creates a TagAttacher over explicit strategies.
func NewTagAttacherWithStrategies(strategies ...AttachStrategy) *TagAttacher {
	return &TagAttacher{strategies: strategies}
}

// Attach attaches tagID to subscriberID. Strategy failures are not errors:
// when nothing verifies, Attach still succeeds with Verified false and the
// last non-empty response seen, because the API is eventually consistent
// and the attach may land later. Only context cancellation is returned.
func (a *TagAttacher) Attach(ctx context.Context, subscriberID, tagID int64) (*model.AttachResult, error) {
	var (
		errs *multierror.Error
		last map[string]any
	)
	for _, s := range a.strategies {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "tagging: attach cancelled")
		}

		res := s.Attempt(ctx, subscriberID, tagID)
		if res.Err != nil {
			errs = multierror.Append(errs, eris.Wrapf(res.Err, "strategy %s", s.Name()))
		}
		if len(res.Response) > 0 {
			last = res.Response
		}
		if res.Outcome == OutcomeVerified {
			resp := res.Response
			if len(resp) == 0 {
				resp = okMarker()
			}
			return &model.AttachResult{Verified: true, Strategy: s.Name(), Response: resp}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "tagging: attach cancelled")
	}

	zap.L().Warn("tagging: attach not verified",
		zap.Int64("subscriber_id", subscriberID),
		zap.Int64("tag_id", tagID),
		zap.Error(errs.ErrorOrNil()),
	)
	if last == nil {
		last = okMarker()
	}
	return &model.AttachResult{Verified: false, Response: last}, nil
}

func okMarker() map[string]any {
	return map[string]any{"ok": true}
}
