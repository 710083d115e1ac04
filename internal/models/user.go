package models

import (
	"time"
)

// User 对应 users 表
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(64);unique;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Email        string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}
