package chi

import (
	"strings"

	"github.com/kailas-cloud/lookbook/internal/domain/recommendation"
)

// Error codes returned in failure bodies.
const (
	codeBadRequest          = "bad_request"
	codeUnauthorized        = "unauthorized"
	codeNotFound            = "not_found"
	codeInvalidImages       = "invalid_images"
	codePayloadTooLarge     = "payload_too_large"
	codeMalformedIntent     = "malformed_intent"
	codeUnsupportedCategory = "unsupported_category"
	codeMediaDelivery       = "media_delivery_failed"
	codeMediaUpload         = "media_upload_failed"
	codeGeneration          = "generation_failed"
	codeInternal            = "internal_error"
)

type textRequest struct {
	QueryText string `json:"queryText"`
	Query     string `json:"query"`
	// UserPrompt is accepted for clients of the older API.
	UserPrompt string `json:"userPrompt"`
}

// text returns the first non-blank of queryText, query and userPrompt.
func (r textRequest) text() string {
	for _, q := range []string{r.QueryText, r.Query, r.UserPrompt} {
		if strings.TrimSpace(q) != "" {
			return q
		}
	}
	return ""
}

type analysisResponse struct {
	Category    string   `json:"category,omitempty"`
	Context     string   `json:"context,omitempty"`
	ItemInImage string   `json:"itemInImage,omitempty"`
	SearchTerms []string `json:"searchTerms"`
}

type itemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

type recommendationResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message,omitempty"`
	Analysis     analysisResponse `json:"analysis"`
	Items        []itemResponse   `json:"items"`
	Images       []string         `json:"images,omitempty"`
	FailedTerms  int              `json:"failedTerms,omitempty"`
	RawModelText string           `json:"rawModelText"`
}

type errorResponse struct {
	Success      bool   `json:"success"`
	Code         string `json:"code"`
	Error        string `json:"error"`
	RawModelText string `json:"rawModelText,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resultToResponse(res *recommendation.Result) recommendationResponse {
	in := res.Intent()
	items := make([]itemResponse, len(res.Items()))
	for i, it := range res.Items() {
		items[i] = itemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Price:       it.Price,
			ImageURL:    it.ImageURL,
			Description: it.Description,
		}
	}
	return recommendationResponse{
		Success: true,
		Message: res.Message(),
		Analysis: analysisResponse{
			Category:    string(in.Category()),
			Context:     in.Context(),
			ItemInImage: in.ItemInImage(),
			SearchTerms: in.SearchTerms(),
		},
		Items:        items,
		Images:       res.Images(),
		FailedTerms:  res.FailedTerms(),
		RawModelText: res.RawText(),
	}
}
