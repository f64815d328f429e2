package tagging

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// TagSource is one way of reading a subscriber's tags. ok is false when the
// source answered with something other than a tag list.
type TagSource struct {
	Name  string
	Fetch func(ctx context.Context, subscriberID int64) (tags []botconversa.Tag, ok bool, err error)
}

// TagLister reads a subscriber's tags, trying each source in order until
// one returns a list.
type TagLister struct {
	sources []TagSource
}

// NewTagLister creates a TagLister with the four shapes BotConversa
// accounts have been seen to answer: the dedicated tags endpoint, then the
// tags embedded in the subscriber record, each singular then plural.
func NewTagLister(api API) *TagLister {
	dedicated := func(res botconversa.Resource) TagSource {
		return TagSource{
			Name: "tags-" + string(res),
			Fetch: func(ctx context.Context, id int64) ([]botconversa.Tag, bool, error) {
				return api.SubscriberTags(ctx, res, id)
			},
		}
	}
	embedded := func(res botconversa.Resource) TagSource {
		return TagSource{
			Name: "record-" + string(res),
			Fetch: func(ctx context.Context, id int64) ([]botconversa.Tag, bool, error) {
				sub, err := api.Subscriber(ctx, res, id)
				if err != nil || sub == nil {
					return nil, false, err
				}
				tags, ok := sub.TagList()
				return tags, ok, nil
			},
		}
	}
	return NewTagListerWithSources(
		dedicated(botconversa.Singular),
		dedicated(botconversa.Plural),
		embedded(botconversa.Singular),
		embedded(botconversa.Plural),
	)
}

// NewTagListerWithSources creates a TagLister over explicit sources.
func NewTagListerWithSources(sources ...TagSource) *TagLister {
	return &TagLister{sources: sources}
}

// List returns the subscriber's tags from the first source that yields a
// list. Failing sources are skipped. When every source fails, List returns
// an empty slice and false: the tags are unknown, not necessarily absent.
func (l *TagLister) List(ctx context.Context, subscriberID int64) ([]model.Tag, bool) {
	for _, src := range l.sources {
		if ctx.Err() != nil {
			break
		}
		tags, ok, err := src.Fetch(ctx, subscriberID)
		if err != nil {
			zap.L().Debug("tagging: tag source failed",
				zap.String("source", src.Name),
				zap.Int64("subscriber_id", subscriberID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			return toTags(tags), true
		}
	}
	return []model.Tag{}, false
}

// Contains reports whether the subscriber's readable tags include tagID.
func (l *TagLister) Contains(ctx context.Context, subscriberID, tagID int64) bool {
	tags, _ := l.List(ctx, subscriberID)
	return model.HasTag(tags, tagID)
}
