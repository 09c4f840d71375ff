package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"url-redirector/internal/auth"
	"url-redirector/internal/model"
	"url-redirector/internal/repository"
	"url-redirector/internal/util"
)

type CreateInput struct {
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	Permanent bool   `json:"permanent"`
	PassQuery bool   `json:"passQuery"`
}

type RootInput struct {
	URL       string `json:"url"`
	Permanent bool   `json:"permanent"`
	PassQuery bool   `json:"passQuery"`
}

type NotFoundInput struct {
	URL string `json:"url"`
}

// Admin is the write side. Every method checks the capability it is handed;
// none of them touch usage counters.
type Admin struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewAdmin(store repository.Store, logger *slog.Logger) *Admin {
	return &Admin{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func authorize(c auth.Capability) error {
	if !c.IsAdmin || c.Host == "" {
		return ErrForbidden
	}
	return nil
}

func checkURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrMissingURL
	}
	if !util.ValidateURL(raw) {
		return ErrInvalidURL
	}
	return nil
}

// List returns every mapping on the caller's host, newest first.
func (a *Admin) List(ctx context.Context, c auth.Capability) ([]model.Mapping, error) {
	if err := authorize(c); err != nil {
		return nil, err
	}
	return a.store.ListByHost(ctx, c.Host)
}

// Create adds a regular mapping. The store's conditional insert decides
// whether the slug is free.
func (a *Admin) Create(ctx context.Context, c auth.Capability, in CreateInput) (*model.Mapping, error) {
	if err := authorize(c); err != nil {
		return nil, err
	}
	switch {
	case in.Slug == "":
		return nil, ErrMissingSlug
	case in.Slug == HealthSlug:
		return nil, ErrReservedSlug
	case strings.HasPrefix(in.Slug, "/") || strings.HasSuffix(in.Slug, "/"):
		return nil, ErrSlugShape
	}
	if err := checkURL(in.URL); err != nil {
		return nil, err
	}

	m := a.newMapping(c, model.RegularKey(c.Host, in.Slug), strings.TrimSpace(in.URL), model.StatusFor(in.Permanent))
	m.PassQuery = in.PassQuery
	if err := a.store.Insert(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrSlugTaken
		case errors.Is(err, repository.ErrReservedSlug):
			return nil, ErrReservedSlug
		}
		return nil, fmt.Errorf("create mapping: %w", err)
	}
	a.logger.Info("mapping created", "host", c.Host, "slug", in.Slug, "status", m.Status, "by", c.Identity)
	return m, nil
}

// SetRoot points the host's bare domain at url, replacing any previous root.
func (a *Admin) SetRoot(ctx context.Context, c auth.Capability, in RootInput) (*model.Mapping, error) {
	if err := authorize(c); err != nil {
		return nil, err
	}
	if err := checkURL(in.URL); err != nil {
		return nil, err
	}
	m := a.newMapping(c, model.RootKey(c.Host), strings.TrimSpace(in.URL), model.StatusFor(in.Permanent))
	m.PassQuery = in.PassQuery
	if err := a.store.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("set root mapping: %w", err)
	}
	a.logger.Info("root mapping set", "host", c.Host, "id", m.ID, "status", m.Status, "by", c.Identity)
	return m, nil
}

// SetNotFound sets where unknown slugs on the host go. It is always a 302.
func (a *Admin) SetNotFound(ctx context.Context, c auth.Capability, in NotFoundInput) (*model.Mapping, error) {
	if err := authorize(c); err != nil {
		return nil, err
	}
	if err := checkURL(in.URL); err != nil {
		return nil, err
	}
	m := a.newMapping(c, model.NotFoundKey(c.Host), strings.TrimSpace(in.URL), model.StatusTemporary)
	if err := a.store.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("set not-found mapping: %w", err)
	}
	a.logger.Info("not-found mapping set", "host", c.Host, "id", m.ID, "by", c.Identity)
	return m, nil
}

// Delete removes a mapping by id on the caller's host. Unknown ids succeed.
func (a *Admin) Delete(ctx context.Context, c auth.Capability, id string) error {
	if err := authorize(c); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, c.Host, id); err != nil {
		return fmt.Errorf("delete mapping %s: %w", id, err)
	}
	a.logger.Info("mapping deleted", "host", c.Host, "id", id, "by", c.Identity)
	return nil
}

func (a *Admin) newMapping(c auth.Capability, key model.Key, url string, status int) *model.Mapping {
	return &model.Mapping{
		ID:        a.newID(),
		Host:      key.Host,
		Kind:      key.Kind,
		Slug:      key.Slug,
		URL:       url,
		Status:    status,
		CreatedAt: a.now().Unix(),
		CreatedBy: c.Identity,
	}
}
