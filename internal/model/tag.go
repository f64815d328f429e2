package model

// Mode identifies which backend served a request.
type Mode string

const (
	ModeReal      Mode = "real"      // Live BotConversa API
	ModeSimulated Mode = "simulated" // In-memory stand-in
)

// Tag is a labeled marker attachable to subscribers. Names are unique per
// account; the id is assigned upstream.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Subscriber is a contact identified upstream by id and looked up by its
// canonical phone number.
type Subscriber struct {
	ID    int64  `json:"id"`
	Phone string `json:"phone"`
}

// HasTag reports whether tags contains a tag with the given id.
func HasTag(tags []Tag, tagID int64) bool {
	for _, t := range tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// AttachResult is the outcome of attaching a tag to a subscriber.
// Verified is false when no strategy could confirm the attach by reading the
// subscriber's tags back; the attach was dispatched but is advisory only.
type AttachResult struct {
	Verified bool           `json:"verified"`
	Strategy string         `json:"strategy,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// KeyStatus is the result of checking an API key.
type KeyStatus struct {
	OK     bool   `json:"ok"`
	Mode   Mode   `json:"mode"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
}
