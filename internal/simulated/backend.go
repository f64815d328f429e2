package simulated

import (
	"context"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/internal/tagging"
)

// MinKeyLength is the shortest API key the simulated key check accepts.
const MinKeyLength = 20

// Strategy is reported as the attach strategy of simulated attaches.
const Strategy = "simulated"

// Backend serves one API key from a shared Store. Missing tags are created
// on first use, unlike the real backend.
type Backend struct {
	store  *Store
	apiKey string
}

var _ tagging.Backend = (*Backend)(nil)

// NewBackend creates a Backend for apiKey over store.
func NewBackend(store *Store, apiKey string) *Backend {
	return &Backend{store: store, apiKey: apiKey}
}

// Factory returns a BackendFactory whose backends all share store.
func Factory(store *Store) tagging.BackendFactory {
	return func(apiKey string) tagging.Backend {
		return NewBackend(store, apiKey)
	}
}

// Mode implements tagging.Backend.
func (b *Backend) Mode() model.Mode { return model.ModeSimulated }

// TestKey accepts any key of at least MinKeyLength characters.
func (b *Backend) TestKey(ctx context.Context) (model.KeyStatus, error) {
	if err := ctx.Err(); err != nil {
		return model.KeyStatus{}, err
	}
	return model.KeyStatus{OK: len(b.apiKey) >= MinKeyLength, Mode: model.ModeSimulated}, nil
}

// FindTag creates the tag when it does not exist.
func (b *Backend) FindTag(ctx context.Context, name string) (*model.Tag, error) {
	return b.CreateOrGetTag(ctx, name)
}

// CreateOrGetTag implements tagging.Backend.
func (b *Backend) CreateOrGetTag(ctx context.Context, name string) (*model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tag := b.store.CreateOrGetTag(name)
	return &tag, nil
}

// ResolveTag creates the tag when it does not exist.
func (b *Backend) ResolveTag(ctx context.Context, name string) (*model.Tag, error) {
	return b.CreateOrGetTag(ctx, name)
}

// FindSubscriber implements tagging.Backend.
func (b *Backend) FindSubscriber(ctx context.Context, phone string) (*model.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.store.Subscriber(phone), nil
}

// UpsertSubscriber implements tagging.Backend.
func (b *Backend) UpsertSubscriber(ctx context.Context, phone string) (*model.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := b.store.UpsertSubscriber(phone)
	return &sub, nil
}

// AttachTag records the relation. Simulated attaches are always verified.
func (b *Backend) AttachTag(ctx context.Context, subscriberID, tagID int64) (*model.AttachResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.store.Attach(subscriberID, tagID)
	return &model.AttachResult{
		Verified: true,
		Strategy: Strategy,
		Response: map[string]any{"ok": true, "subscriber": subscriberID, "tag": tagID},
	}, nil
}

// ListSubscriberTags implements tagging.Backend.
func (b *Backend) ListSubscriberTags(ctx context.Context, subscriberID int64) ([]model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.store.SubscriberTags(subscriberID), nil
}
