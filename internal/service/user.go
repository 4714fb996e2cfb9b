package service

import (
	"Next_Express/internal/repo"
	"Next_Express/internal/storage"
	"Next_Express/model"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	msgNameEmailRequired = "Name and email are required"
	msgEmailExists       = "Email already exists"
	msgUserNotFound      = "User not found"
)

// CreateUserInput carries the form fields of a create request.
type CreateUserInput struct {
	Name    string
	Email   string
	Picture *Upload
}

// UpdateUserInput carries the supplied fields of an update; empty means unchanged.
type UpdateUserInput struct {
	Name    string
	Email   string
	Picture *Upload
}

// UserResult separates the primary result from advisory cleanups.
type UserResult struct {
	User     *model.User
	Cleanups []CleanupOutcome
}

// UserService is the record service for users over one backend.
type UserService struct {
	backend string
	users   repo.UserRepository
	deps    Deps
	cleaner *BlobCleaner
	logger  *zap.Logger
}

func NewUserService(backend string, users repo.UserRepository, deps Deps) *UserService {
	deps = deps.withDefaults()
	logger := deps.Logger.With(zap.String("backend", backend), zap.String("entity", "user"))
	return &UserService{
		backend: backend,
		users:   users,
		deps:    deps,
		cleaner: NewBlobCleaner(deps.Store, deps.Bucket, deps.Queue, logger, deps.Metrics),
		logger:  logger,
	}
}

// Backend names the store this service writes to.
func (s *UserService) Backend() string { return s.backend }

// Ping checks the backing repository.
func (s *UserService) Ping(ctx context.Context) error { return s.users.Ping(ctx) }

// reservePoll is how often a busy email reservation is retried.
const reservePoll = 50 * time.Millisecond

// reserveEmail returns a release func; a guard outage only narrows protection.
// A reservation held by a concurrent writer is waited out for up to
// Deps.ReserveWait, since that writer may still fail and never claim the email.
// The caller re-checks the store once the reservation is its own.
func (s *UserService) reserveEmail(ctx context.Context, email string) (func(), error) {
	if s.deps.Guard == nil {
		return func() {}, nil
	}
	deadline := time.NewTimer(s.deps.ReserveWait)
	defer deadline.Stop()
	for {
		release, err := s.deps.Guard.Reserve(ctx, email)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, repo.ErrLockBusy) {
			s.logger.Warn("email reservation unavailable", zap.Error(err))
			return func() {}, nil
		}
		select {
		case <-ctx.Done():
			return nil, dependencyError("reserve email", "Failed to reserve email", ctx.Err())
		case <-deadline.C:
			return nil, conflictError(msgEmailExists)
		case <-time.After(reservePoll):
		}
	}
}

// ensureEmailFree fails with a conflict when another user owns email.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID, op string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return dependencyError(op, "Failed to "+op, err)
	case existing.ID != selfID:
		return conflictError(msgEmailExists)
	}
	return nil
}

// uploadPicture stores a profile picture and returns its key.
func (s *UserService) uploadPicture(ctx context.Context, pic *Upload) (string, error) {
	key := storage.ProfilePictureKey(pic.Filename)
	err := s.deps.Store.PutObject(ctx, s.deps.Bucket, key, pic.Reader, pic.Size, storage.PutOptions{
		ContentType: pic.ContentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// pictureKey recovers the storage key of a user's picture. Records written
// before keys were stored only carry the object URL.
func (s *UserService) pictureKey(u *model.User) string {
	if u.ProfilePictureKey != "" {
		return u.ProfilePictureKey
	}
	if u.ProfilePictureURL == "" {
		return ""
	}
	if key, ok := strings.CutPrefix(u.ProfilePictureURL, s.deps.Store.ObjectURL(s.deps.Bucket, "")); ok {
		return key
	}
	return ""
}

// CreateUser validates the input, optionally stores the picture and inserts
// the record. A failed picture upload does not stop the create.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*UserResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, validationError(msgNameEmailRequired)
	}

	release, err := s.reserveEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureEmailFree(ctx, email, "", "create user"); err != nil {
		return nil, err
	}

	now := s.deps.timestamp()
	user := &model.User{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Picture != nil {
		key, err := s.uploadPicture(ctx, in.Picture)
		if err != nil {
			s.logger.Warn("profile picture upload failed, creating user without it", zap.Error(err))
		} else {
			user.ProfilePictureKey = key
			user.ProfilePictureURL = s.deps.Store.ObjectURL(s.deps.Bucket, key)
		}
	}

	result := &UserResult{}
	if err := s.users.Create(ctx, user); err != nil {
		if user.ProfilePictureKey != "" {
			result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, user.ProfilePictureKey, "create rolled back"))
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, conflictError(msgEmailExists)
		}
		return nil, dependencyError("create user", "Failed to create user", err)
	}
	result.User = user
	s.logger.Info("user created", zap.String("id", user.ID))
	return result, nil
}

// GetUser returns the user or a not-found error.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFoundError(msgUserNotFound)
	}
	if err != nil {
		return nil, dependencyError("get user", "Failed to fetch user", err)
	}
	return user, nil
}

// ListUsers returns every user of the backend.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dependencyError("list users", "Failed to fetch users", err)
	}
	return users, nil
}

// UpdateUser merges the supplied fields. A new picture replaces the old one;
// the old blob is removed first as advisory cleanup. updatedAt always moves forward.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*UserResult, error) {
	existing, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := model.UserPatch{}
	if name := strings.TrimSpace(in.Name); name != "" {
		patch.Name = &name
	}
	if email := strings.TrimSpace(in.Email); email != "" && email != existing.Email {
		release, err := s.reserveEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		defer release()
		if err := s.ensureEmailFree(ctx, email, id, "update user"); err != nil {
			return nil, err
		}
		patch.Email = &email
	}

	result := &UserResult{}
	if in.Picture != nil {
		if oldKey := s.pictureKey(existing); oldKey != "" {
			result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, oldKey, "picture replaced"))
		}
		key, err := s.uploadPicture(ctx, in.Picture)
		if err != nil {
			return nil, dependencyError("upload picture", "Failed to update user", err)
		}
		url := s.deps.Store.ObjectURL(s.deps.Bucket, key)
		patch.ProfilePictureKey = &key
		patch.ProfilePictureURL = &url
	}

	now := s.deps.timestamp()
	if floor := existing.UpdatedAt.Add(time.Millisecond); now.Before(floor) {
		now = floor
	}
	patch.UpdatedAt = now

	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		if patch.ProfilePictureKey != nil {
			result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, *patch.ProfilePictureKey, "update rolled back"))
		}
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, notFoundError(msgUserNotFound)
		case errors.Is(err, repo.ErrDuplicate):
			return nil, conflictError(msgEmailExists)
		}
		return nil, dependencyError("update user", "Failed to update user", err)
	}
	result.User = updated
	return result, nil
}

// DeleteUser removes the user's picture (advisory) and then the record.
// An unknown id fails before any blob call.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*UserResult, error) {
	existing, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &UserResult{User: existing}
	if key := s.pictureKey(existing); key != "" {
		result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, key, "user deleted"))
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFoundError(msgUserNotFound)
		}
		return nil, dependencyError("delete user", "Failed to delete user", err)
	}
	s.logger.Info("user deleted", zap.String("id", id))
	return result, nil
}
