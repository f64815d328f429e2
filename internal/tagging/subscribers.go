package tagging

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
	"github.com/sells-group/bcproxy/pkg/phone"
)

// importedLastName marks subscribers created by this proxy.
const importedLastName = "Import"

// SubscriberResolver finds and creates subscribers by canonical phone.
type SubscriberResolver struct {
	api API
}

// NewSubscriberResolver creates a SubscriberResolver.
func NewSubscriberResolver(api API) *SubscriberResolver {
	return &SubscriberResolver{api: api}
}

// FindByPhone returns the subscriber with this phone, or nil when the API
// has none (or returns a record without an id).
func (r *SubscriberResolver) FindByPhone(ctx context.Context, p string) (*model.Subscriber, error) {
	sub, err := r.api.SubscriberByPhone(ctx, p)
	if err != nil {
		return nil, eris.Wrap(err, "tagging: find subscriber")
	}
	if sub == nil || sub.ID == 0 {
		return nil, nil
	}
	return &model.Subscriber{ID: int64(sub.ID), Phone: p}, nil
}

// Upsert returns the subscriber with this phone, creating it when absent.
// Created subscribers get a placeholder name derived from the phone.
func (r *SubscriberResolver) Upsert(ctx context.Context, p string) (*model.Subscriber, error) {
	found, err := r.FindByPhone(ctx, p)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	created, err := r.api.CreateSubscriber(ctx, botconversa.NewSubscriber{
		Phone:     p,
		FirstName: placeholderFirstName(p),
		LastName:  importedLastName,
	})
	if err != nil {
		return nil, eris.Wrap(err, "tagging: create subscriber")
	}
	if created.ID == 0 {
		return nil, eris.New("tagging: created subscriber has no id")
	}

	zap.L().Debug("tagging: created subscriber",
		zap.String("phone", phone.Redact(p)),
		zap.Int64("subscriber_id", int64(created.ID)),
	)
	return &model.Subscriber{ID: int64(created.ID), Phone: p}, nil
}

// placeholderFirstName is the area code of a canonical number, or the
// country code when the number is too short to have one.
func placeholderFirstName(p string) string {
	if len(p) >= 4 {
		return p[2:4]
	}
	return phone.CountryCode
}
