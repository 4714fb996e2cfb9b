package service

import (
	"Next_Express/internal/repo"
	"Next_Express/internal/storage"
	"Next_Express/model"
	"Next_Express/utils"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	msgNoFile       = "No file provided"
	msgFileNotFound = "File not found"

	fileRecordTTL = 10 * time.Minute
)

// FileResult separates the primary result from advisory cleanups.
type FileResult struct {
	File     *model.File
	Cleanups []CleanupOutcome
}

// FileService is the record service for files over one backend.
type FileService struct {
	backend string
	files   repo.FileRepository
	deps    Deps
	cleaner *BlobCleaner
	logger  *zap.Logger
}

func NewFileService(backend string, files repo.FileRepository, deps Deps) *FileService {
	deps = deps.withDefaults()
	logger := deps.Logger.With(zap.String("backend", backend), zap.String("entity", "file"))
	return &FileService{
		backend: backend,
		files:   files,
		deps:    deps,
		cleaner: NewBlobCleaner(deps.Store, deps.Bucket, deps.Queue, logger, deps.Metrics),
		logger:  logger,
	}
}

func (s *FileService) Backend() string { return s.backend }

func (s *FileService) Ping(ctx context.Context) error { return s.files.Ping(ctx) }

// UploadFile writes the blob under a fresh key, then the metadata. A failed
// blob write aborts; a failed metadata write removes the orphaned blob.
func (s *FileService) UploadFile(ctx context.Context, up *Upload) (*FileResult, error) {
	if up == nil || up.Reader == nil {
		return nil, validationError(msgNoFile)
	}
	name := strings.TrimSpace(up.Filename)
	if name == "" {
		name = "file"
	}
	key := storage.FileKey(name)
	if err := s.deps.Store.PutObject(ctx, s.deps.Bucket, key, up.Reader, up.Size, storage.PutOptions{
		ContentType: up.ContentType,
	}); err != nil {
		return nil, dependencyError("upload file", "Failed to upload file", err)
	}

	now := s.deps.timestamp()
	file := &model.File{
		Name:        name,
		Key:         key,
		Size:        up.Size,
		ContentType: up.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	result := &FileResult{}
	if err := s.files.Create(ctx, file); err != nil {
		result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, key, "metadata write failed"))
		return nil, dependencyError("create file", "Failed to upload file", err)
	}
	file.URL = s.signedURL(ctx, key)
	result.File = file
	s.logger.Info("file uploaded", zap.String("id", file.ID), zap.String("key", key), zap.Int64("size", up.Size))
	return result, nil
}

// ListFiles returns every file with a freshly signed URL. A signing failure
// leaves that entry's url null.
func (s *FileService) ListFiles(ctx context.Context) ([]model.File, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		return nil, dependencyError("list files", "Failed to list files", err)
	}
	for i := range files {
		files[i].URL = s.signedURL(ctx, files[i].Key)
	}
	return files, nil
}

// DeleteFile removes the blob (advisory) and then the metadata.
func (s *FileService) DeleteFile(ctx context.Context, id string) (*FileResult, error) {
	file, err := s.files.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFoundError(msgFileNotFound)
	}
	if err != nil {
		return nil, dependencyError("get file", "Failed to delete file", err)
	}

	result := &FileResult{File: file}
	result.Cleanups = append(result.Cleanups, s.cleaner.Remove(ctx, file.Key, "file deleted"))

	if err := s.files.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFoundError(msgFileNotFound)
		}
		return nil, dependencyError("delete file", "Failed to delete file", err)
	}
	s.forgetRecord(ctx, id)
	s.logger.Info("file deleted", zap.String("id", id), zap.String("key", file.Key))
	return result, nil
}

func (s *FileService) recordCacheKey(id string) string {
	return utils.BuildCacheKey(utils.CacheKeyFileRecord, s.backend, id)
}

// signedURL signs key for one validity window. Links are never reused.
func (s *FileService) signedURL(ctx context.Context, key string) *string {
	url, err := s.deps.Store.PresignedGetObject(ctx, s.deps.Bucket, key, s.deps.SignedURLTTL)
	if err != nil {
		s.logger.Warn("could not sign url", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &url
}

// lookup reads a file record, through the record cache when one is set.
func (s *FileService) lookup(ctx context.Context, id string) (*model.File, error) {
	if s.deps.Cache != nil {
		var cached model.File
		err := s.deps.Cache.Get(ctx, s.recordCacheKey(id), &cached)
		if err == nil && cached.Key != "" {
			cached.URL = nil
			return &cached, nil
		}
		if err != nil && !errors.Is(err, utils.ErrCacheMiss) {
			s.logger.Debug("file cache read failed", zap.Error(err))
		}
	}
	file, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		rec := *file
		rec.URL = nil
		if err := s.deps.Cache.Set(ctx, s.recordCacheKey(id), rec, fileRecordTTL); err != nil {
			s.logger.Debug("file cache write failed", zap.Error(err))
		}
	}
	return file, nil
}

func (s *FileService) forgetRecord(ctx context.Context, id string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Delete(ctx, s.recordCacheKey(id)); err != nil {
		s.logger.Debug("file cache delete failed", zap.Error(err))
	}
}

// GetFile returns one file with a freshly signed URL. Records are immutable,
// so they may come from the record cache; the URL never does.
func (s *FileService) GetFile(ctx context.Context, id string) (*model.File, error) {
	file, err := s.lookup(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFoundError(msgFileNotFound)
	}
	if err != nil {
		return nil, dependencyError("get file", "Failed to fetch file", err)
	}
	file.URL = s.signedURL(ctx, file.Key)
	return file, nil
}
