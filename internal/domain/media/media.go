// Package media describes images handed to the generative model.
package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// MaxImages is the maximum number of images per request.
const MaxImages = 2

// DefaultContentType is used when neither the upload nor the host reports one.
const DefaultContentType = "image/jpeg"

// PartKind selects how an image reaches the model.
type PartKind int

const (
	// PartURL references a hosted image the model fetches itself.
	PartURL PartKind = iota
	// PartInline carries the raw bytes in the request.
	PartInline
)

// Part is one model input element derived from an image.
type Part struct {
	Kind        PartKind
	URL         string
	ContentType string
	Data        []byte
}

// Hosted is the reference returned by the image host.
type Hosted struct {
	ID          string
	URL         string
	ContentType string
}

// BytesFunc re-reads the raw image bytes, e.g. from the upload buffer.
type BytesFunc func(ctx context.Context) ([]byte, error)

// Image is one uploaded image: its hosted reference plus a way back to the original bytes.
type Image struct {
	Hosted Hosted
	Bytes  BytesFunc
}

// NewBufferedImage builds an Image whose bytes come from an in-memory upload buffer.
func NewBufferedImage(hosted Hosted, data []byte) Image {
	return Image{
		Hosted: hosted,
		Bytes: func(context.Context) ([]byte, error) {
			if len(data) == 0 {
				return nil, fmt.Errorf("image %s: empty buffer", hosted.ID)
			}
			return data, nil
		},
	}
}

// URLPart returns the reference-based model part for the image.
func (i Image) URLPart() Part {
	return Part{Kind: PartURL, URL: i.Hosted.URL, ContentType: ResolveContentType(i.Hosted.ContentType, nil)}
}

// InlinePart re-reads the image bytes and returns an inline model part.
func (i Image) InlinePart(ctx context.Context) (Part, error) {
	if i.Bytes == nil {
		return Part{}, fmt.Errorf("image %s: no byte source", i.Hosted.ID)
	}
	data, err := i.Bytes(ctx)
	if err != nil {
		return Part{}, fmt.Errorf("read image %s: %w", i.Hosted.ID, err)
	}
	return Part{
		Kind:        PartInline,
		ContentType: ResolveContentType(i.Hosted.ContentType, data),
		Data:        data,
	}, nil
}

// ResolveContentType prefers the declared image/* type, then sniffs data, then falls back to JPEG.
func ResolveContentType(declared string, data []byte) string {
	if ct := strings.TrimSpace(declared); strings.HasPrefix(ct, "image/") {
		return ct
	}
	if len(data) > 0 {
		if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
			return ct
		}
	}
	return DefaultContentType
}
