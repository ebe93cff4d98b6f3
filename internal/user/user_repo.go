package user

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CurrentTokenVersion(ctx context.Context, id string) (int64, error)
	// BumpTokenVersion atomically increments and returns the new version.
	BumpTokenVersion(ctx context.Context, id string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return &u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return &u, err
}

func (r *repository) CurrentTokenVersion(ctx context.Context, id string) (int64, error) {
	var u User
	err := r.db.WithContext(ctx).
		Select("token_version").
		Where("id = ?", id).
		First(&u).Error
	return u.TokenVersion, err
}

func (r *repository) BumpTokenVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := r.db.WithContext(ctx).
		Raw(`
UPDATE users
SET token_version = token_version + 1, updated_at = NOW()
WHERE id = ?
RETURNING token_version
`, id).
		Scan(&version).Error
	return version, err
}
