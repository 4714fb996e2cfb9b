package service

import (
	"Next_Express/internal/metrics"
	"Next_Express/internal/storage"
	"Next_Express/utils"
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// Upload is a blob received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// EmailReserver holds an email address while a create or update claims it.
type EmailReserver interface {
	Reserve(ctx context.Context, email string) (release func(), err error)
}

// Deps are the collaborators shared by the record services.
type Deps struct {
	Store        storage.Store
	Bucket       string
	SignedURLTTL time.Duration
	Logger       *zap.Logger
	Metrics      *metrics.Registry

	// optional
	Queue CleanupQueue
	Cache utils.Cache
	Guard EmailReserver
	Now   func() time.Time

	// ReserveWait bounds how long a busy email reservation is waited on.
	ReserveWait time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.SignedURLTTL <= 0 {
		d.SignedURLTTL = time.Hour
	}
	if d.ReserveWait <= 0 {
		d.ReserveWait = 2 * time.Second
	}
	return d
}

// timestamp returns now at millisecond precision, which every backend stores.
func (d Deps) timestamp() time.Time {
	return d.Now().UTC().Truncate(time.Millisecond)
}
