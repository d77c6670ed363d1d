// Package model holds the dev backend's database tables.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Record is one resource item. Every resource path shares the table; the
// item itself is the JSON payload.
type Record struct {
	ID        string         `gorm:"primaryKey;size:26;comment:ULID"`
	Resource  string         `gorm:"size:128;not null;index:idx_resource;comment:资源路径"`
	Payload   string         `gorm:"type:text;not null;comment:JSON 内容"`
	CreatedBy string         `gorm:"size:26;index:idx_created_by;comment:创建者"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:软删除时间"`
}

// TableName returns the table name for GORM.
func (*Record) TableName() string {
	return "records"
}

// User is a portal account.
type User struct {
	ID               string         `json:"id" gorm:"primaryKey;size:26"`
	Email            string         `json:"email" gorm:"size:128;not null;uniqueIndex:uk_email"`
	Password         string         `json:"-" gorm:"size:255;not null;comment:密码Hash"`
	FirstName        string         `json:"firstName" gorm:"size:64"`
	LastName         string         `json:"lastName" gorm:"size:64"`
	Phone            string         `json:"phone,omitempty" gorm:"size:20"`
	AvatarURL        string         `json:"avatarUrl,omitempty" gorm:"size:255"`
	Role             string         `json:"role" gorm:"size:32;not null;default:student"`
	TwoFactorEnabled bool           `json:"twoFactorEnabled"`
	TwoFactorSecret  string         `json:"-" gorm:"size:64"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for GORM.
func (*User) TableName() string {
	return "users"
}

// Tables lists every model for AutoMigrate.
func Tables() []interface{} {
	return []interface{}{&Record{}, &User{}}
}
