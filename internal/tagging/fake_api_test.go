package tagging

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// fakeAPI is an in-memory BotConversa account. Hooks override individual
// calls; unset hooks fall through to the in-memory behavior.
type fakeAPI struct {
	mu        sync.Mutex
	tags      []botconversa.Tag
	nextTag   int64
	subs      map[string]int64
	nextSub   int64
	subTags   map[int64][]int64
	created   []botconversa.NewSubscriber
	calls     []string
	listPages int

	customFieldsErr error
	createTagHook   func(name string) (*botconversa.Tag, error)
	attachHook      func(res botconversa.Resource, sid, tid int64) (map[string]any, error)
	updateHook      func(res botconversa.Resource, sid int64, tids []int64) (map[string]any, error)
	subTagsHook     func(res botconversa.Resource, sid int64) ([]botconversa.Tag, bool, error)
	subscriberHook  func(res botconversa.Resource, sid int64) (*botconversa.Subscriber, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextTag: 10,
		subs:    map[string]int64{},
		nextSub: 500,
		subTags: map[int64][]int64{},
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) addTag(name string) int64 {
	f.nextTag++
	f.tags = append(f.tags, botconversa.Tag{ID: botconversa.ID(f.nextTag), Name: botconversa.Text(name)})
	return f.nextTag
}

func (f *fakeAPI) tagByID(id int64) botconversa.Tag {
	for _, t := range f.tags {
		if int64(t.ID) == id {
			return t
		}
	}
	return botconversa.Tag{ID: botconversa.ID(id)}
}

func (f *fakeAPI) CustomFields(_ context.Context) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("custom_fields")
	if f.customFieldsErr != nil {
		return nil, f.customFieldsErr
	}
	return json.RawMessage(`[]`), nil
}

func (f *fakeAPI) ListTags(_ context.Context, page, perPage int) ([]botconversa.Tag, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list_tags")
	f.listPages++
	start := (page - 1) * perPage
	if start >= len(f.tags) {
		return []botconversa.Tag{}, true, nil
	}
	end := min(start+perPage, len(f.tags))
	return slices.Clone(f.tags[start:end]), true, nil
}

func (f *fakeAPI) CreateTag(_ context.Context, name string) (*botconversa.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_tag")
	if f.createTagHook != nil {
		return f.createTagHook(name)
	}
	for _, t := range f.tags {
		if string(t.Name) == name {
			return nil, &botconversa.StatusError{Code: http.StatusBadRequest, Detail: `{"name":["already exists"]}`}
		}
	}
	id := f.addTag(name)
	return &botconversa.Tag{ID: botconversa.ID(id), Name: botconversa.Text(name)}, nil
}

func (f *fakeAPI) SubscriberByPhone(_ context.Context, phone string) (*botconversa.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get_by_phone")
	id, ok := f.subs[phone]
	if !ok {
		return nil, nil
	}
	return &botconversa.Subscriber{ID: botconversa.ID(id), Phone: botconversa.Text(phone)}, nil
}

func (f *fakeAPI) CreateSubscriber(_ context.Context, in botconversa.NewSubscriber) (*botconversa.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_subscriber")
	f.created = append(f.created, in)
	f.nextSub++
	f.subs[in.Phone] = f.nextSub
	return &botconversa.Subscriber{ID: botconversa.ID(f.nextSub), Phone: botconversa.Text(in.Phone)}, nil
}

func (f *fakeAPI) Subscriber(_ context.Context, res botconversa.Resource, sid int64) (*botconversa.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get_" + string(res))
	if f.subscriberHook != nil {
		return f.subscriberHook(res, sid)
	}
	return nil, nil
}

func (f *fakeAPI) SubscriberTags(_ context.Context, res botconversa.Resource, sid int64) ([]botconversa.Tag, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("tags_" + string(res))
	if f.subTagsHook != nil {
		return f.subTagsHook(res, sid)
	}
	out := []botconversa.Tag{}
	for _, id := range f.subTags[sid] {
		out = append(out, f.tagByID(id))
	}
	return out, true, nil
}

func (f *fakeAPI) AttachTag(_ context.Context, res botconversa.Resource, sid, tid int64) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("attach_" + string(res))
	if f.attachHook != nil {
		return f.attachHook(res, sid, tid)
	}
	f.link(sid, tid)
	return map[string]any{"subscriber": sid, "tag": tid}, nil
}

func (f *fakeAPI) UpdateSubscriberTags(_ context.Context, res botconversa.Resource, sid int64, tids []int64) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_" + string(res))
	if f.updateHook != nil {
		return f.updateHook(res, sid, tids)
	}
	for _, tid := range tids {
		f.link(sid, tid)
	}
	return map[string]any{"id": strconv.FormatInt(sid, 10)}, nil
}

// link must be called with f.mu held.
func (f *fakeAPI) link(sid, tid int64) {
	if !slices.Contains(f.subTags[sid], tid) {
		f.subTags[sid] = append(f.subTags[sid], tid)
	}
}
