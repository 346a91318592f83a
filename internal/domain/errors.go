package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmptyInput signals a blank text or request that must not be dispatched.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidSearchParams signals a candidate pool smaller than the limit or a non-positive limit.
	ErrInvalidSearchParams = errors.New("invalid search parameters")

	// ErrMalformedIntent signals a model reply without a parseable JSON object.
	ErrMalformedIntent = errors.New("malformed intent")
	// ErrUnsupportedCategory signals a classified category outside the catalog enum.
	ErrUnsupportedCategory = errors.New("unsupported category")
	// ErrGenerationFailed signals a text-only generation failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrMediaDeliveryFailed signals that both the hosted-URL and the inline attempts failed.
	ErrMediaDeliveryFailed = errors.New("media delivery failed")
	// ErrInvalidImages signals an image upload outside the accepted count, size or type.
	ErrInvalidImages = errors.New("invalid images")
	// ErrMediaUploadFailed signals that an image could not be hosted.
	ErrMediaUploadFailed = errors.New("media upload failed")

	// ErrEmbeddingFailure signals an embedding call that produced no usable vector.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrSearchFailure signals a failed vector store query for one term.
	ErrSearchFailure = errors.New("search failure")
)
