package service

import (
	"log/slog"
	"time"

	"url-redirector/internal/repository"
	"url-redirector/internal/usage"
)

const defaultTrackTimeout = 2 * time.Second

// Service bundles the read path and the admin write path over one store.
type Service struct {
	Resolver *Resolver
	Admin    *Admin
}

type Options struct {
	// TrackTimeout bounds each detached usage increment.
	TrackTimeout time.Duration
}

func NewService(store repository.Store, rec usage.Recorder, logger *slog.Logger, opts Options) *Service {
	if opts.TrackTimeout <= 0 {
		opts.TrackTimeout = defaultTrackTimeout
	}
	return &Service{
		Resolver: NewResolver(store, rec, logger, opts.TrackTimeout),
		Admin:    NewAdmin(store, logger),
	}
}
