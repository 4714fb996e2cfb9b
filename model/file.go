package model

import (
	"strconv"
	"time"
)

// File is the metadata of one uploaded blob. Files are immutable once created.
type File struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Key         string    `json:"key" dynamodbav:"key"`
	Size        int64     `json:"size" dynamodbav:"size"`
	ContentType string    `json:"contentType" dynamodbav:"contentType"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`

	// URL is derived on read and never stored.
	URL *string `json:"url" dynamodbav:"-"`
}

// FileRecord is the relational row for a file.
type FileRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Name        string `gorm:"column:name;type:varchar(255);not null"`
	StorageKey  string `gorm:"column:storage_key;type:varchar(512);not null;uniqueIndex:uk_files_storage_key"`
	Size        int64  `gorm:"column:size;not null;default:0"`
	ContentType string `gorm:"column:content_type;type:varchar(255);not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName returns the database table name.
func (FileRecord) TableName() string {
	return "files"
}

// ToFile converts the row into the API shape.
func (r FileRecord) ToFile() File {
	return File{
		ID:          strconv.FormatUint(r.ID, 10),
		Name:        r.Name,
		Key:         r.StorageKey,
		Size:        r.Size,
		ContentType: r.ContentType,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// NewFileRecord builds a row from f; the id is assigned by the database.
func NewFileRecord(f File) FileRecord {
	return FileRecord{
		Name:        f.Name,
		StorageKey:  f.Key,
		Size:        f.Size,
		ContentType: f.ContentType,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
