package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kailas-cloud/lookbook/internal/domain"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	recommenduc "github.com/kailas-cloud/lookbook/internal/usecase/recommend"
)

const (
	imagesField = "images"
	// multipartOverhead leaves room for text fields and part headers.
	multipartOverhead = 1 << 20
)

// RecommendText handles POST /v1/recommendations/text.
func (s *Server) RecommendText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, multipartOverhead)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query := req.text()
	if query == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}

	res, err := s.recommend.RecommendText(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(&res))
}

// RecommendImages handles POST /v1/recommendations/image (multipart, field "images").
func (s *Server) RecommendImages(w http.ResponseWriter, r *http.Request) {
	maxBody := int64(dommedia.MaxImages)*s.maxImageBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(maxBody); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge,
				fmt.Sprintf("request exceeds %d bytes", maxBody))
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[imagesField]
	if len(files) == 0 || len(files) > dommedia.MaxImages {
		writeError(w, http.StatusBadRequest, codeInvalidImages,
			fmt.Sprintf("expected 1 to %d files in field %q, got %d", dommedia.MaxImages, imagesField, len(files)))
		return
	}

	uploads := make([]recommenduc.Upload, 0, len(files))
	for _, fh := range files {
		up, err := s.readImage(fh)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		uploads = append(uploads, up)
	}

	query := r.FormValue("queryText")
	if strings.TrimSpace(query) == "" {
		query = r.FormValue("userPrompt")
	}

	res, err := s.recommend.RecommendImages(r.Context(), query, uploads)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(&res))
}

// readImage loads one part, enforcing the size limit and an image content type.
func (s *Server) readImage(fh *multipart.FileHeader) (recommenduc.Upload, error) {
	if fh.Size > s.maxImageBytes {
		return recommenduc.Upload{}, fmt.Errorf("%w: %s is %d bytes, limit %d",
			domain.ErrInvalidImages, fh.Filename, fh.Size, s.maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return recommenduc.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxImageBytes+1))
	if err != nil {
		return recommenduc.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > s.maxImageBytes {
		return recommenduc.Upload{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidImages, fh.Filename, s.maxImageBytes)
	}
	if len(data) == 0 {
		return recommenduc.Upload{}, fmt.Errorf("%w: %s is empty", domain.ErrInvalidImages, fh.Filename)
	}

	ct, ok := imageContentType(fh.Header.Get("Content-Type"), data)
	if !ok {
		return recommenduc.Upload{}, fmt.Errorf("%w: %s is not an image", domain.ErrInvalidImages, fh.Filename)
	}
	return recommenduc.Upload{Data: data, ContentType: ct}, nil
}

// imageContentType prefers a declared image/* type and sniffs otherwise.
func imageContentType(declared string, data []byte) (string, bool) {
	if strings.HasPrefix(strings.TrimSpace(declared), "image/") {
		return strings.TrimSpace(declared), true
	}
	if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
		return ct, true
	}
	return "", false
}
