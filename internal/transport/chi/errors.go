package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/logger"
	recommenduc "github.com/kailas-cloud/lookbook/internal/usecase/recommend"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, raw string) bool

// defaultErrorHandlers maps sentinels to statuses. Order matters: a failed inline
// fallback wraps the generator error, so delivery is matched before generation.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrInvalidSearchParams, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrInvalidImages, http.StatusBadRequest, codeInvalidImages),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnsupportedCategory, http.StatusBadRequest, codeUnsupportedCategory),
		sentinelHandler(domain.ErrMalformedIntent, http.StatusUnprocessableEntity, codeMalformedIntent),
		sentinelHandler(domain.ErrMediaUploadFailed, http.StatusBadGateway, codeMediaUpload),
		sentinelHandler(domain.ErrMediaDeliveryFailed, http.StatusBadGateway, codeMediaDelivery),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeGeneration),
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyInput,
		domain.ErrInvalidSearchParams,
		domain.ErrInvalidImages,
		domain.ErrNotFound,
		domain.ErrUnsupportedCategory,
		domain.ErrMalformedIntent,
		domain.ErrMediaUploadFailed,
		domain.ErrMediaDeliveryFailed,
		domain.ErrGenerationFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, raw string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeFailure(w, status, code, safeDomainMessage(err), raw)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)

	var raw string
	var f *recommenduc.Failure
	if errors.As(err, &f) {
		raw = f.RawText
	}

	for _, h := range s.errorHandlers {
		if h(w, err, raw) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, codeInternal, "internal error", raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeFailure(w, status, code, message, "")
}

func writeFailure(w http.ResponseWriter, status int, code, message, raw string) {
	writeJSON(w, status, errorResponse{
		Success:      false,
		Code:         code,
		Error:        message,
		RawModelText: raw,
	})
}
