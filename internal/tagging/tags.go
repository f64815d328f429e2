package tagging

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/model"
)

// tagPageSize is the listing page size; a shorter page is the last one.
const tagPageSize = 100

// DefaultMaxTagPages stops pagination against an upstream that ignores the
// page parameter and keeps returning full pages.
const DefaultMaxTagPages = 500

// ResolverOption configures a TagResolver.
type ResolverOption func(*TagResolver)

// WithMaxTagPages sets how many listing pages FindByName reads before it
// gives up. Non-positive values keep the default.
func WithMaxTagPages(n int) ResolverOption {
	return func(r *TagResolver) {
		if n > 0 {
			r.maxPages = n
		}
	}
}

// TagResolver finds and creates tags by exact name.
type TagResolver struct {
	api      API
	maxPages int
}

// NewTagResolver creates a TagResolver.
func NewTagResolver(api API, opts ...ResolverOption) *TagResolver {
	r := &TagResolver{api: api, maxPages: DefaultMaxTagPages}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByName pages through the tag listing and returns the first tag whose
// name matches exactly (case-sensitive). It returns nil when no page has
// the tag, including when the listing is missing or not an array; the API
// does not support searching. At most maxPages pages are read (see
// WithMaxTagPages); running past the cap is logged and reported as not found.
func (r *TagResolver) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	for page := 1; page <= r.maxPages; page++ {
		tags, ok, err := r.api.ListTags(ctx, page, tagPageSize)
		if err != nil {
			return nil, eris.Wrapf(err, "tagging: find tag %q", name)
		}
		if !ok {
			return nil, nil
		}
		for _, t := range tags {
			if string(t.Name) == name {
				tag := toTag(t)
				return &tag, nil
			}
		}
		if len(tags) < tagPageSize {
			return nil, nil
		}
	}
	zap.L().Warn("tagging: tag listing did not end",
		zap.String("tag", name),
		zap.Int("pages", r.maxPages),
	)
	return nil, nil
}

// CreateOrGet creates the tag and returns it. The create call is not
// trusted on its own: a response for a different name triggers a lookup,
// and a failed create (typically a duplicate name) is forgiven when the
// tag can be found by name.
func (r *TagResolver) CreateOrGet(ctx context.Context, name string) (*model.Tag, error) {
	created, createErr := r.api.CreateTag(ctx, name)
	if createErr != nil {
		found, err := r.FindByName(ctx, name)
		if err == nil && found != nil {
			zap.L().Debug("tagging: create failed, found existing tag",
				zap.String("tag", name),
				zap.Int64("tag_id", found.ID),
				zap.Error(createErr),
			)
			return found, nil
		}
		return nil, eris.Wrapf(createErr, "tagging: create tag %q", name)
	}

	if created != nil && string(created.Name) == name {
		tag := toTag(*created)
		return &tag, nil
	}

	found, err := r.FindByName(ctx, name)
	if err == nil && found != nil {
		return found, nil
	}
	if created != nil && created.ID != 0 {
		zap.L().Warn("tagging: created tag name mismatch",
			zap.String("tag", name),
			zap.String("returned_name", string(created.Name)),
			zap.Int64("tag_id", int64(created.ID)),
		)
		tag := toTag(*created)
		return &tag, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, &TagNotFoundError{Name: name}
}
