package repo

import (
	"Next_Express/model"
	"context"

	"gorm.io/gorm"
)

// GormFileRepository stores file metadata in the relational database.
type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(ctx context.Context, file *model.File) error {
	rec := model.NewFileRecord(*file)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translateGormError(err)
	}
	url := file.URL
	*file = rec.ToFile()
	file.URL = url
	return nil
}

func (r *GormFileRepository) Get(ctx context.Context, id string) (*model.File, error) {
	rowID, err := parseRowID(id)
	if err != nil {
		return nil, err
	}
	var rec model.FileRecord
	if err := r.db.WithContext(ctx).First(&rec, rowID).Error; err != nil {
		return nil, translateGormError(err)
	}
	file := rec.ToFile()
	return &file, nil
}

func (r *GormFileRepository) Delete(ctx context.Context, id string) error {
	rowID, err := parseRowID(id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&model.FileRecord{}, rowID)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns files newest first.
func (r *GormFileRepository) List(ctx context.Context) ([]model.File, error) {
	var recs []model.FileRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	files := make([]model.File, 0, len(recs))
	for _, rec := range recs {
		files = append(files, rec.ToFile())
	}
	return files, nil
}

func (r *GormFileRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
