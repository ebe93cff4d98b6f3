package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleGuard = "GUARD"
	RoleAdmin = "ADMIN"
)

// TokenVersion is the session revocation lever: every issued JWT embeds the
// version current at login, and bumping it strands all previously issued
// tokens at once.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SiteID       *uuid.UUID     `gorm:"column:site_id;type:uuid;index"`
	FullName     string         `gorm:"column:full_name;type:varchar(255)"`
	Role         string         `gorm:"column:role;type:varchar(20);not null;default:GUARD"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Password     string         `gorm:"column:password;type:text;not null"`
	TokenVersion int64          `gorm:"column:token_version;not null;default:1"`
	IsActive     bool           `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}
