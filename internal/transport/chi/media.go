package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetMedia handles GET /v1/media/{id}: the hosted image the model fetches by URL.
func (s *Server) GetMedia(w http.ResponseWriter, r *http.Request) {
	obj, err := s.media.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}
