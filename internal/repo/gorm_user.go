package repo

import (
	"Next_Express/model"
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
)

// GormUserRepository stores users in the relational database.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// parseRowID maps non-numeric ids to ErrNotFound; they can never match a row.
func parseRowID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	rec := model.NewUserRecord(*user)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translateGormError(err)
	}
	*user = rec.ToUser()
	return nil
}

func (r *GormUserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	rowID, err := parseRowID(id)
	if err != nil {
		return nil, err
	}
	var rec model.UserRecord
	if err := r.db.WithContext(ctx).First(&rec, rowID).Error; err != nil {
		return nil, translateGormError(err)
	}
	user := rec.ToUser()
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var rec model.UserRecord
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, translateGormError(err)
	}
	user := rec.ToUser()
	return &user, nil
}

// Update applies the patch and returns the stored row.
func (r *GormUserRepository) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	rowID, err := parseRowID(id)
	if err != nil {
		return nil, err
	}
	columns := map[string]interface{}{
		"updated_at": patch.UpdatedAt,
	}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.Email != nil {
		columns["email"] = *patch.Email
	}
	if patch.ProfilePictureURL != nil {
		columns["profile_picture_url"] = *patch.ProfilePictureURL
	}
	if patch.ProfilePictureKey != nil {
		columns["profile_picture_key"] = *patch.ProfilePictureKey
	}

	var rec model.UserRecord
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, rowID).Error; err != nil {
			return err
		}
		if err := tx.Model(&rec).Updates(columns).Error; err != nil {
			return err
		}
		return tx.First(&rec, rowID).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	user := rec.ToUser()
	return &user, nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	rowID, err := parseRowID(id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&model.UserRecord{}, rowID)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns users newest first.
func (r *GormUserRepository) List(ctx context.Context) ([]model.User, error) {
	var recs []model.UserRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.ToUser())
	}
	return users, nil
}

func (r *GormUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
