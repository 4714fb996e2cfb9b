package repo

import (
	"Next_Express/model"
	"context"
	"errors"
)

var (
	// ErrNotFound means no record has the requested id (or email).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists users in one backend.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
	Ping(ctx context.Context) error
}

// FileRepository persists file metadata in one backend.
type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	Get(ctx context.Context, id string) (*model.File, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.File, error)
	Ping(ctx context.Context) error
}
