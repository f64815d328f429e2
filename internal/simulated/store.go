// Package simulated is an in-memory stand-in for a BotConversa account,
// used when the proxy runs without REAL_MODE. State lives for the life of
// the process and is shared by every API key.
package simulated

import (
	"slices"
	"strconv"
	"sync"

	"github.com/sells-group/bcproxy/internal/model"
)

const (
	firstTagID        = 100
	firstSubscriberID = 1000
)

// Store holds simulated tags, subscribers and their relations.
type Store struct {
	mu       sync.Mutex
	tags     map[string]int64
	tagNames map[int64]string
	subs     map[string]int64
	rel      map[int64][]int64 // subscriber id -> tag ids in attach order
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		tags:     map[string]int64{},
		tagNames: map[int64]string{},
		subs:     map[string]int64{},
		rel:      map[int64][]int64{},
	}
}

// Tag returns the tag with this exact name, or nil.
func (s *Store) Tag(name string) *model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tags[name]
	if !ok {
		return nil
	}
	return &model.Tag{ID: id, Name: name}
}

// CreateOrGetTag returns the tag with this name, assigning the next id
// when it does not exist yet.
func (s *Store) CreateOrGetTag(name string) model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.tags[name]; ok {
		return model.Tag{ID: id, Name: name}
	}
	id := int64(len(s.tags) + firstTagID)
	s.tags[name] = id
	s.tagNames[id] = name
	return model.Tag{ID: id, Name: name}
}

// Subscriber returns the subscriber with this phone, or nil.
func (s *Store) Subscriber(phone string) *model.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.subs[phone]
	if !ok {
		return nil
	}
	return &model.Subscriber{ID: id, Phone: phone}
}

// UpsertSubscriber returns the subscriber with this phone, assigning the
// next id when it does not exist yet.
func (s *Store) UpsertSubscriber(phone string) model.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.subs[phone]; ok {
		return model.Subscriber{ID: id, Phone: phone}
	}
	id := int64(len(s.subs) + firstSubscriberID)
	s.subs[phone] = id
	return model.Subscriber{ID: id, Phone: phone}
}

// Attach relates tagID to subscriberID. Ids are not checked against known
// tags or subscribers. Attaching twice keeps a single relation.
func (s *Store) Attach(subscriberID, tagID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.rel[subscriberID], tagID) {
		s.rel[subscriberID] = append(s.rel[subscriberID], tagID)
	}
}

// SubscriberTags lists the tags attached to subscriberID in attach order.
// Unknown tag ids are named after the id.
func (s *Store) SubscriberTags(subscriberID int64) []model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.rel[subscriberID]
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		name, ok := s.tagNames[id]
		if !ok {
			name = strconv.FormatInt(id, 10)
		}
		out = append(out, model.Tag{ID: id, Name: name})
	}
	return out
}

// Stats reports how many tags and subscribers the store holds.
func (s *Store) Stats() (tags, subscribers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags), len(s.subs)
}
