package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bcproxy/internal/bulk"
	"github.com/sells-group/bcproxy/internal/tagging"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// errorResponse is the error envelope for every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationError is a rejected request. It is never sent upstream.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Fields)
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: map[string]string{field: msg}}
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst validation.Validatable) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return &ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	if err := dst.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			out := make(map[string]string, len(fields))
			for k, v := range fields {
				out[k] = v.Error()
			}
			return &ValidationError{Message: "validation failed", Fields: out}
		}
		return eris.Wrap(err, "proxy: validate request")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("proxy: encode response", zap.Error(err))
	}
}

// writeError maps err to a status code and writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *ValidationError
		nf *tagging.TagNotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Details: ve.Fields})
	case errors.Is(err, bulk.ErrEmptyTagName):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "validation failed",
			Details: map[string]string{"tagName": "must not be blank"},
		})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf(
			"Tag %q not found. Create it in BotConversa under Configurações → Etiquetas using this exact name.", nf.Name)})
	default:
		if se, ok := botconversa.AsStatusError(err); ok {
			writeJSON(w, se.Code, errorResponse{Error: se.Detail})
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "upstream timeout"})
			return
		}
		zap.L().Error("proxy: request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
