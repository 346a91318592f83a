// Package mediastore hosts uploaded images in the key-value store so the generative
// model can fetch them by URL.
package mediastore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/lookbook/internal/db"
	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/media"
)

var keyPrefix = domain.KeyPrefix + "media:"

// store is the consumer interface for hosted media (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Object is a hosted image as served back over HTTP.
type Object struct {
	ContentType string
	Data        []byte
}

// Store uploads images and serves them back by id.
type Store struct {
	store   store
	baseURL string
	ttl     time.Duration
	newID   func() string
}

// New creates a media store. baseURL is the externally reachable origin of this service.
func New(s store, baseURL string, ttl time.Duration) *Store {
	return &Store{
		store:   s,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		newID:   func() string { return uuid.NewString() },
	}
}

// Upload stores the bytes and returns the hosted reference.
func (s *Store) Upload(ctx context.Context, data []byte, contentType string) (media.Hosted, error) {
	if len(data) == 0 {
		return media.Hosted{}, fmt.Errorf("%w: empty image", domain.ErrMediaUploadFailed)
	}
	ct := media.ResolveContentType(contentType, data)
	id := s.newID()

	if err := s.store.SetWithTTL(ctx, keyPrefix+id, encode(ct, data), s.ttl); err != nil {
		return media.Hosted{}, fmt.Errorf("%w: %w", domain.ErrMediaUploadFailed, err)
	}

	return media.Hosted{
		ID:          id,
		URL:         s.baseURL + "/v1/media/" + id,
		ContentType: ct,
	}, nil
}

// Get returns a hosted image. Unknown or expired ids yield domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Object, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Object{}, fmt.Errorf("media %q: %w", id, domain.ErrNotFound)
	}

	raw, err := s.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Object{}, fmt.Errorf("media %s: %w", id, domain.ErrNotFound)
		}
		return Object{}, fmt.Errorf("get media %s: %w", id, err)
	}

	obj, err := decode(raw)
	if err != nil {
		return Object{}, fmt.Errorf("decode media %s: %w", id, err)
	}
	return obj, nil
}

// Stored layout: "<content-type>\n<bytes>".
func encode(contentType string, data []byte) []byte {
	buf := make([]byte, 0, len(contentType)+1+len(data))
	buf = append(buf, contentType...)
	buf = append(buf, '\n')
	return append(buf, data...)
}

func decode(raw []byte) (Object, error) {
	i := bytes.IndexByte(raw, '\n')
	if i <= 0 {
		return Object{}, errors.New("missing content type header")
	}
	return Object{ContentType: string(raw[:i]), Data: raw[i+1:]}, nil
}
