package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"url-redirector/internal/model"
	"url-redirector/internal/repository"
	"url-redirector/internal/usage"
	"url-redirector/internal/util"
)

// HealthSlug is the one path no mapping can shadow.
const HealthSlug = "__health__"

const (
	HealthBody   = "URL Shortener"
	NotFoundBody = "Error: Invalid link"
)

// Decision is what the redirect surface writes back. Location is set for 3xx
// statuses, Body otherwise.
type Decision struct {
	Status   int
	Location string
	Body     string

	// trackID is the mapping to count once the response is out. Only primary
	// hits carry one.
	trackID string
}

func (d Decision) IsRedirect() bool { return d.Location != "" }

type Resolver struct {
	store        repository.Store
	usage        usage.Recorder
	logger       *slog.Logger
	trackTimeout time.Duration
	inflight     sync.WaitGroup
}

func NewResolver(store repository.Store, rec usage.Recorder, logger *slog.Logger, trackTimeout time.Duration) *Resolver {
	return &Resolver{store: store, usage: rec, logger: logger, trackTimeout: trackTimeout}
}

// Resolve picks the response for host and path. It only reads the store.
func (r *Resolver) Resolve(ctx context.Context, host, path, rawQuery string) (Decision, error) {
	slug := util.SlugFromPath(path)
	if slug == HealthSlug {
		return Decision{Status: http.StatusOK, Body: HealthBody}, nil
	}

	key := model.RegularKey(host, slug)
	if slug == "" {
		key = model.RootKey(host)
	}

	m, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		if m.URL == "" {
			r.logger.Error("mapping without url", "id", m.ID, "host", host, "slug", slug)
			return Decision{}, fmt.Errorf("%w: id %s", ErrInconsistent, m.ID)
		}
		dest := m.URL
		if m.PassQuery {
			dest = util.MergeQuery(rawQuery, dest)
		}
		return Decision{Status: redirectStatus(m.Status), Location: dest, trackID: m.ID}, nil
	case errors.Is(err, repository.ErrNotFound):
	default:
		return Decision{}, fmt.Errorf("lookup %s%s: %w", host, path, err)
	}

	override, err := r.store.Get(ctx, model.NotFoundKey(host))
	switch {
	case err == nil && override.URL != "":
		// Always temporary: the slug may be created later.
		return Decision{Status: http.StatusFound, Location: override.URL}, nil
	case err == nil, errors.Is(err, repository.ErrNotFound):
		return Decision{Status: http.StatusNotFound, Body: NotFoundBody}, nil
	default:
		return Decision{}, fmt.Errorf("lookup not-found override for %s: %w", host, err)
	}
}

// Track counts a primary hit on its own goroutine, detached from the request.
// Call it after the response has been written. The result is logged and
// otherwise discarded.
func (r *Resolver) Track(d Decision) {
	if d.trackID == "" || r.usage == nil {
		return
	}
	r.inflight.Add(1)
	go func(id string) {
		defer r.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.trackTimeout)
		defer cancel()
		if err := r.usage.Record(ctx, id); err != nil {
			r.logger.Debug("usage increment dropped", "id", id, "error", err)
		}
	}(d.trackID)
}

// Wait blocks until every detached increment has finished.
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

func redirectStatus(status int) int {
	if status == http.StatusMovedPermanently {
		return http.StatusMovedPermanently
	}
	return http.StatusFound
}
