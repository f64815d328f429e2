package botconversa

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an upstream identifier. BotConversa sends ids as JSON numbers in
// most payloads and as numeric strings in a few; both decode here.
// Anything else decodes to 0.
type ID int64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*id = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = ID(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*id = ID(int64(f))
		return nil
	}
	*id = 0
	return nil
}

// Text is a string field the API occasionally sends as a bare number.
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

// Tag is a BotConversa tag ("etiqueta").
type Tag struct {
	ID   ID   `json:"id"`
	Name Text `json:"name"`
}

// Subscriber is a BotConversa contact.
type Subscriber struct {
	ID        ID              `json:"id"`
	Phone     Text            `json:"phone,omitempty"`
	FirstName Text            `json:"first_name,omitempty"`
	LastName  Text            `json:"last_name,omitempty"`
	Tags      json.RawMessage `json:"tags,omitempty"`
}

// TagList decodes the tags embedded in a subscriber record. The second
// return is false when the record carries no tag list.
func (s *Subscriber) TagList() ([]Tag, bool) {
	return decodeList[Tag](s.Tags)
}

// NewSubscriber is the payload for creating a subscriber.
type NewSubscriber struct {
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Resource selects between the singular and plural spelling of the
// subscriber resource; the API answers on either depending on the account.
type Resource string

const (
	// Singular is "/subscriber/...".
	Singular Resource = "subscriber"
	// Plural is "/subscribers/...".
	Plural Resource = "subscribers"
)

// decodeList decodes raw as a JSON array of T. It reports false when raw is
// absent, not an array, or not decodable as []T.
func decodeList[T any](raw json.RawMessage) ([]T, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	if out == nil {
		out = []T{}
	}
	return out, true
}

// decodeObject decodes raw as a JSON object into T. It reports false when
// raw is absent or not an object.
func decodeObject[T any](raw json.RawMessage) (*T, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}
