package proxy

import (
	"net/http"
	"strings"

	"github.com/sells-group/bcproxy/internal/bulk"
	"github.com/sells-group/bcproxy/internal/tagging"
	"github.com/sells-group/bcproxy/pkg/phone"
)

const invalidPhoneMessage = "invalid phone: expected 55 + area code + number"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"mode":    s.mode,
		"message": "BotConversa proxy is running. Use the POST /bc/* endpoints.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "mode": s.mode})
}

func (s *Server) handleTestKey(w http.ResponseWriter, r *http.Request) {
	var req testKeyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	st, err := s.backends(req.APIKey).TestKey(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleFindTag looks a tag up by exact name. In simulated mode a missing
// tag is created; in real mode it is a 404 telling the user where to
// create it.
func (s *Server) handleFindTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)

	tag, err := s.backends(req.APIKey).FindTag(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tag == nil {
		writeError(w, r, &tagging.TagNotFoundError{Name: name})
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleCreateOrGetTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tag, err := s.backends(req.APIKey).CreateOrGetTag(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleUpsertSubscriber(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := canonicalPhone(req.Phone)
	if !ok {
		writeError(w, r, fieldError("phone", invalidPhoneMessage))
		return
	}

	b := s.backends(req.APIKey)
	sub, err := b.UpsertSubscriber(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": sub.ID, "phone": p, "mode": b.Mode()})
}

// handleAttachTag merges the upstream response into the reply; the
// proxy's own keys take precedence.
func (s *Server) handleAttachTag(w http.ResponseWriter, r *http.Request) {
	var req attachTagRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b := s.backends(req.APIKey)
	res, err := b.AttachTag(r.Context(), req.SubscriberID, req.TagID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make(map[string]any, len(res.Response)+4)
	for k, v := range res.Response {
		out[k] = v
	}
	out["ok"] = true
	out["mode"] = b.Mode()
	out["verified"] = res.Verified
	if res.Strategy != "" {
		out["strategy"] = res.Strategy
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSubscriberTags(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := canonicalPhone(req.Phone)
	if !ok {
		writeError(w, r, fieldError("phone", invalidPhoneMessage))
		return
	}

	b := s.backends(req.APIKey)
	sub, err := b.FindSubscriber(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sub == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "subscriber not found"})
		return
	}
	tags, err := b.ListSubscriberTags(r.Context(), sub.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriber": sub,
		"tags":       tags,
		"mode":       b.Mode(),
	})
}

func (s *Server) handleBulkAttach(w http.ResponseWriter, r *http.Request) {
	var req bulkAttachRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p := bulk.NewPipeline(s.backends(req.APIKey), bulk.WithDelay(s.bulkDelay))
	summary, err := p.Run(r.Context(), req.TagName, req.Phones)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func canonicalPhone(raw string) (string, bool) {
	p := phone.Normalize(raw)
	return p, phone.IsValidCanonical(p)
}
