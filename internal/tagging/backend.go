// Package tagging resolves tags and subscribers against BotConversa and
// attaches tags to subscribers, verifying each attach by reading the
// subscriber's tags back.
package tagging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// Backend is the capability set shared by the real and simulated modes.
// The mode is fixed when a Backend is constructed.
type Backend interface {
	Mode() model.Mode
	// TestKey checks whether the API key is usable.
	TestKey(ctx context.Context) (model.KeyStatus, error)
	// FindTag returns the tag with exactly this name, or nil.
	FindTag(ctx context.Context, name string) (*model.Tag, error)
	// CreateOrGetTag returns the tag with this name, creating it if needed.
	CreateOrGetTag(ctx context.Context, name string) (*model.Tag, error)
	// ResolveTag returns the tag used for attach operations. Backends that
	// must not create tags implicitly return *TagNotFoundError when absent.
	ResolveTag(ctx context.Context, name string) (*model.Tag, error)
	// FindSubscriber returns the subscriber with this phone, or nil.
	FindSubscriber(ctx context.Context, phone string) (*model.Subscriber, error)
	// UpsertSubscriber returns the subscriber with this phone, creating it
	// if needed.
	UpsertSubscriber(ctx context.Context, phone string) (*model.Subscriber, error)
	// AttachTag attaches tagID to subscriberID. Attaching twice is a no-op.
	AttachTag(ctx context.Context, subscriberID, tagID int64) (*model.AttachResult, error)
	// ListSubscriberTags returns the subscriber's tags. An empty list may
	// mean the tags could not be read.
	ListSubscriberTags(ctx context.Context, subscriberID int64) ([]model.Tag, error)
}

// BackendFactory builds the Backend serving one API key.
type BackendFactory func(apiKey string) Backend

// TagNotFoundError reports a tag that must exist upstream but does not.
type TagNotFoundError struct {
	Name string
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag %q not found", e.Name)
}

// API is the subset of the BotConversa client used here.
type API interface {
	CustomFields(ctx context.Context) (json.RawMessage, error)
	ListTags(ctx context.Context, page, perPage int) ([]botconversa.Tag, bool, error)
	CreateTag(ctx context.Context, name string) (*botconversa.Tag, error)
	SubscriberByPhone(ctx context.Context, phone string) (*botconversa.Subscriber, error)
	CreateSubscriber(ctx context.Context, in botconversa.NewSubscriber) (*botconversa.Subscriber, error)
	Subscriber(ctx context.Context, res botconversa.Resource, subscriberID int64) (*botconversa.Subscriber, error)
	SubscriberTags(ctx context.Context, res botconversa.Resource, subscriberID int64) ([]botconversa.Tag, bool, error)
	AttachTag(ctx context.Context, res botconversa.Resource, subscriberID, tagID int64) (map[string]any, error)
	UpdateSubscriberTags(ctx context.Context, res botconversa.Resource, subscriberID int64, tagIDs []int64) (map[string]any, error)
}

var _ API = (*botconversa.Client)(nil)

func toTag(t botconversa.Tag) model.Tag {
	return model.Tag{ID: int64(t.ID), Name: string(t.Name)}
}

func toTags(in []botconversa.Tag) []model.Tag {
	out := make([]model.Tag, len(in))
	for i, t := range in {
		out[i] = toTag(t)
	}
	return out
}
