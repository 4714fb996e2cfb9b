package repo

import (
	"Next_Express/model"
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// IDGenerator returns a fresh record id.
type IDGenerator func() string

// SequentialIDs mimics an auto-increment column.
func SequentialIDs(start uint64) IDGenerator {
	var counter atomic.Uint64
	counter.Store(start)
	return func() string {
		return strconv.FormatUint(counter.Add(1), 10)
	}
}

// MemoryUserRepository keeps users in a map. It backs a store that has not
// been configured, so the demo still works end to end.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]model.User
	order  []string
	nextID IDGenerator
}

func NewMemoryUserRepository(nextID IDGenerator, seed ...model.User) *MemoryUserRepository {
	r := &MemoryUserRepository{
		users:  make(map[string]model.User),
		nextID: nextID,
	}
	for _, u := range seed {
		r.users[u.ID] = u
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = r.nextID()
	}
	if _, taken := r.users[user.ID]; taken {
		return ErrDuplicate
	}
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && strings.EqualFold(other.Email, *patch.Email) {
				return nil, ErrDuplicate
			}
		}
	}
	patch.Apply(&u)
	r.users[id] = u
	return &u, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	r.order = removeID(r.order, id)
	return nil
}

// List returns users newest first.
func (r *MemoryUserRepository) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.User, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		users = append(users, r.users[r.order[i]])
	}
	return users, nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// MemoryFileRepository keeps file metadata in a map.
type MemoryFileRepository struct {
	mu     sync.RWMutex
	files  map[string]model.File
	order  []string
	nextID IDGenerator
}

func NewMemoryFileRepository(nextID IDGenerator) *MemoryFileRepository {
	return &MemoryFileRepository{
		files:  make(map[string]model.File),
		nextID: nextID,
	}
}

func (r *MemoryFileRepository) Create(ctx context.Context, file *model.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.files {
		if existing.Key == file.Key {
			return ErrDuplicate
		}
	}
	if file.ID == "" {
		file.ID = r.nextID()
	}
	stored := *file
	stored.URL = nil
	r.files[file.ID] = stored
	r.order = append(r.order, file.ID)
	return nil
}

func (r *MemoryFileRepository) Get(ctx context.Context, id string) (*model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFileRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return ErrNotFound
	}
	delete(r.files, id)
	r.order = removeID(r.order, id)
	return nil
}

func (r *MemoryFileRepository) List(ctx context.Context) ([]model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := make([]model.File, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		files = append(files, r.files[r.order[i]])
	}
	return files, nil
}

func (r *MemoryFileRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Demo profile pictures; hosted externally, so they carry no storage key.
const (
	demoPictureJohn  = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face"
	demoPictureJane  = "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face"
	demoPictureAlice = "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face"
	demoPictureBob   = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face"
)

// RelationalDemoUsers is the dataset shown when no SQL database is configured.
func RelationalDemoUsers(now time.Time) []model.User {
	return []model.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", ProfilePictureURL: demoPictureJohn, CreatedAt: now, UpdatedAt: now},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", ProfilePictureURL: demoPictureJane, CreatedAt: now, UpdatedAt: now},
	}
}

// KeyValueDemoUsers is the dataset shown when DynamoDB is not configured.
func KeyValueDemoUsers(now time.Time) []model.User {
	return []model.User{
		{ID: "dynamo-1", Name: "Alice Johnson", Email: "alice@example.com", ProfilePictureURL: demoPictureAlice, CreatedAt: now, UpdatedAt: now},
		{ID: "dynamo-2", Name: "Bob Wilson", Email: "bob@example.com", ProfilePictureURL: demoPictureBob, CreatedAt: now, UpdatedAt: now},
	}
}
