package botconversa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// attachAccept is the success set for attach and update calls, which
// answer 204 on some accounts.
var attachAccept = []int{http.StatusOK, http.StatusCreated, http.StatusNoContent}

// CustomFields fetches the first custom field. It is the cheapest
// authenticated call and doubles as an API key check.
func (c *Client) CustomFields(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: "/custom_fields/?page=1&per_page=1"})
	if err != nil {
		return nil, eris.Wrap(err, "botconversa: custom fields")
	}
	return resp.Body, nil
}

// ListTags fetches one page of the account's tags. The second return is
// false when the page was missing or not a JSON array.
func (c *Client) ListTags(ctx context.Context, page, perPage int) ([]Tag, bool, error) {
	path := fmt.Sprintf("/tags/?page=%d&per_page=%d", page, perPage)
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, false, eris.Wrapf(err, "botconversa: list tags page %d", page)
	}
	if resp.NotFound {
		return nil, false, nil
	}
	tags, ok := decodeList[Tag](resp.Body)
	return tags, ok, nil
}

// CreateTag creates a tag. The returned tag is nil when the API answered
// with something other than a single object.
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	resp, err := c.Call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/tags/",
		Body:   map[string]string{"name": name},
	})
	if err != nil {
		return nil, eris.Wrap(err, "botconversa: create tag")
	}
	tag, _ := decodeObject[Tag](resp.Body)
	return tag, nil
}

// SubscriberByPhone looks a subscriber up by canonical phone. It returns
// nil without error when the API has no such subscriber.
func (c *Client) SubscriberByPhone(ctx context.Context, phone string) (*Subscriber, error) {
	path := "/subscriber/get_by_phone/" + url.PathEscape(phone) + "/"
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, eris.Wrap(err, "botconversa: get subscriber by phone")
	}
	if resp.NotFound {
		return nil, nil
	}
	sub, _ := decodeObject[Subscriber](resp.Body)
	return sub, nil
}

// CreateSubscriber creates a subscriber.
func (c *Client) CreateSubscriber(ctx context.Context, in NewSubscriber) (*Subscriber, error) {
	resp, err := c.Call(ctx, Request{Method: http.MethodPost, Path: "/subscriber/", Body: in})
	if err != nil {
		return nil, eris.Wrap(err, "botconversa: create subscriber")
	}
	sub, ok := decodeObject[Subscriber](resp.Body)
	if !ok {
		return nil, eris.New("botconversa: create subscriber: response is not an object")
	}
	return sub, nil
}

// Subscriber fetches a subscriber record by id.
func (c *Client) Subscriber(ctx context.Context, res Resource, subscriberID int64) (*Subscriber, error) {
	path := fmt.Sprintf("/%s/%d/", res, subscriberID)
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, eris.Wrapf(err, "botconversa: get %s", res)
	}
	if resp.NotFound {
		return nil, nil
	}
	sub, _ := decodeObject[Subscriber](resp.Body)
	return sub, nil
}

// SubscriberTags fetches the dedicated tag listing of a subscriber. The
// second return is false when the endpoint is missing or not an array.
func (c *Client) SubscriberTags(ctx context.Context, res Resource, subscriberID int64) ([]Tag, bool, error) {
	path := fmt.Sprintf("/%s/%d/tags/", res, subscriberID)
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, false, eris.Wrapf(err, "botconversa: list %s tags", res)
	}
	if resp.NotFound {
		return nil, false, nil
	}
	tags, ok := decodeList[Tag](resp.Body)
	return tags, ok, nil
}

// AttachTag calls the dedicated attach endpoint. The returned map is the
// decoded response object, nil when the API sent none.
func (c *Client) AttachTag(ctx context.Context, res Resource, subscriberID, tagID int64) (map[string]any, error) {
	path := fmt.Sprintf("/%s/%d/tags/%d/", res, subscriberID, tagID)
	resp, err := c.Call(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   struct{}{},
		Accept: attachAccept,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "botconversa: attach tag via %s", res)
	}
	return responseObject(resp), nil
}

// UpdateSubscriberTags patches the subscriber record with a tag id list.
func (c *Client) UpdateSubscriberTags(ctx context.Context, res Resource, subscriberID int64, tagIDs []int64) (map[string]any, error) {
	path := fmt.Sprintf("/%s/%d/", res, subscriberID)
	resp, err := c.Call(ctx, Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   map[string][]int64{"tags": tagIDs},
		Accept: attachAccept,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "botconversa: update %s tags", res)
	}
	return responseObject(resp), nil
}

func responseObject(resp *Response) map[string]any {
	if resp == nil || resp.NotFound {
		return nil
	}
	obj, ok := decodeObject[map[string]any](resp.Body)
	if !ok {
		return nil
	}
	return *obj
}
