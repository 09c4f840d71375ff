package repository

import (
	"context"
	"errors"
	"fmt"

	"url-redirector/internal/model"
)

var (
	// ErrNotFound is returned by Get when no mapping exists for a key.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by Insert when the key is already taken.
	ErrConflict = errors.New("mapping already exists")
	// ErrReservedSlug is returned when a regular key uses a slug that the
	// storage layer keeps for the singleton kinds.
	ErrReservedSlug = errors.New("slug is reserved")
)

// Store is the persistence surface the resolver and the admin API share.
type Store interface {
	Get(ctx context.Context, key model.Key) (*model.Mapping, error)
	ListByHost(ctx context.Context, host string) ([]model.Mapping, error)
	// Insert adds m only if its key is free, returning ErrConflict otherwise.
	Insert(ctx context.Context, m *model.Mapping) error
	// Upsert writes m at its key. An existing record keeps its ID and usage
	// counter; m.ID and m.Used are updated to the stored values.
	Upsert(ctx context.Context, m *model.Mapping) error
	// Delete removes the mapping with id on host. Missing ids are not an error.
	Delete(ctx context.Context, host, id string) error
	IncrementUsed(ctx context.Context, id string, delta int64) error
	Ping(ctx context.Context) error
}

// Reserved slug encodings for the singleton kinds.
const (
	rootSlug     = ""
	notFoundSlug = "__404__"
)

// encodeSlug turns a key into the slug column value.
func encodeSlug(k model.Key) (string, error) {
	switch k.Kind {
	case model.KindRoot:
		return rootSlug, nil
	case model.KindNotFound:
		return notFoundSlug, nil
	case model.KindRegular:
		if k.Slug == rootSlug || k.Slug == notFoundSlug {
			return "", fmt.Errorf("%w: %q", ErrReservedSlug, k.Slug)
		}
		return k.Slug, nil
	default:
		return "", fmt.Errorf("unknown kind %v", k.Kind)
	}
}

// lookupSlug is encodeSlug for reads: a reserved regular slug simply has no
// mapping.
func lookupSlug(k model.Key) (string, error) {
	slug, err := encodeSlug(k)
	if errors.Is(err, ErrReservedSlug) {
		return "", ErrNotFound
	}
	return slug, err
}

// decodeSlug is the inverse of encodeSlug.
func decodeSlug(slug string) (model.Kind, string) {
	switch slug {
	case rootSlug:
		return model.KindRoot, ""
	case notFoundSlug:
		return model.KindNotFound, ""
	default:
		return model.KindRegular, slug
	}
}
