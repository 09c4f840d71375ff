package service

import (
	"context"
	"errors"
	"sync"

	"url-redirector/internal/auth"
	"url-redirector/internal/logging"
	"url-redirector/internal/model"
	"url-redirector/internal/repository"
)

const host = "go.a.test"

var admin = auth.Capability{Host: host, IsAdmin: true, Identity: "jj@a.test"}

// countingRecorder records hits and signals each one on hits.
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
	hits   chan string
	err    error
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}, hits: make(chan string, 16)}
}

func (r *countingRecorder) Record(_ context.Context, id string) error {
	r.mu.Lock()
	r.counts[id]++
	r.mu.Unlock()
	r.hits <- id
	return r.err
}

func (r *countingRecorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[id]
}

// failingStore fails every call.
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (failingStore) Get(context.Context, model.Key) (*model.Mapping, error) { return nil, errStoreDown }
func (failingStore) ListByHost(context.Context, string) ([]model.Mapping, error) {
	return nil, errStoreDown
}
func (failingStore) Insert(context.Context, *model.Mapping) error { return errStoreDown }
func (failingStore) Upsert(context.Context, *model.Mapping) error { return errStoreDown }
func (failingStore) Delete(context.Context, string, string) error { return errStoreDown }
func (failingStore) IncrementUsed(context.Context, string, int64) error {
	return errStoreDown
}
func (failingStore) Ping(context.Context) error { return errStoreDown }

var _ repository.Store = failingStore{}

func newTestService(store repository.Store, rec *countingRecorder) *Service {
	svc := NewService(store, rec, logging.Nop(), Options{})
	n := 0
	svc.Admin.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc
}
