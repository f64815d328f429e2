package tagging

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// RealBackend serves requests from the live BotConversa API.
type RealBackend struct {
	api      API
	tags     *TagResolver
	subs     *SubscriberResolver
	lister   *TagLister
	attacher *TagAttacher
}

// NewRealBackend wires the resolvers and the attacher around api.
func NewRealBackend(api API) *RealBackend {
	lister := NewTagLister(api)
	return &RealBackend{
		api:      api,
		tags:     NewTagResolver(api),
		subs:     NewSubscriberResolver(api),
		lister:   lister,
		attacher: NewTagAttacher(api, lister),
	}
}

// RealFactory returns a BackendFactory that builds a BotConversa client per
// API key with the given options.
func RealFactory(opts ...botconversa.Option) BackendFactory {
	return func(apiKey string) Backend {
		return NewRealBackend(botconversa.NewClient(apiKey, opts...))
	}
}

// Mode implements Backend.
func (b *RealBackend) Mode() model.Mode { return model.ModeReal }

// TestKey reads one custom field. A 401/403 is reported as an invalid key
// rather than an error.
func (b *RealBackend) TestKey(ctx context.Context) (model.KeyStatus, error) {
	if _, err := b.api.CustomFields(ctx); err != nil {
		if botconversa.IsUnauthorized(err) {
			se, _ := botconversa.AsStatusError(err)
			return model.KeyStatus{OK: false, Mode: model.ModeReal, Reason: "invalid_key", Status: se.Code}, nil
		}
		return model.KeyStatus{}, eris.Wrap(err, "tagging: test key")
	}
	return model.KeyStatus{OK: true, Mode: model.ModeReal}, nil
}

// FindTag implements Backend.
func (b *RealBackend) FindTag(ctx context.Context, name string) (*model.Tag, error) {
	return b.tags.FindByName(ctx, name)
}

// CreateOrGetTag implements Backend.
func (b *RealBackend) CreateOrGetTag(ctx context.Context, name string) (*model.Tag, error) {
	return b.tags.CreateOrGet(ctx, name)
}

// ResolveTag only looks the tag up: tags must be created in BotConversa
// before they can be attached through the proxy.
func (b *RealBackend) ResolveTag(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := b.tags.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, &TagNotFoundError{Name: name}
	}
	return tag, nil
}

// FindSubscriber implements Backend.
func (b *RealBackend) FindSubscriber(ctx context.Context, phone string) (*model.Subscriber, error) {
	return b.subs.FindByPhone(ctx, phone)
}

// UpsertSubscriber implements Backend.
func (b *RealBackend) UpsertSubscriber(ctx context.Context, phone string) (*model.Subscriber, error) {
	return b.subs.Upsert(ctx, phone)
}

// AttachTag implements Backend.
func (b *RealBackend) AttachTag(ctx context.Context, subscriberID, tagID int64) (*model.AttachResult, error) {
	return b.attacher.Attach(ctx, subscriberID, tagID)
}

// ListSubscriberTags implements Backend.
func (b *RealBackend) ListSubscriberTags(ctx context.Context, subscriberID int64) ([]model.Tag, error) {
	tags, _ := b.lister.List(ctx, subscriberID)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "tagging: list subscriber tags")
	}
	return tags, nil
}
