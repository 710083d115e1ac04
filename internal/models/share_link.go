package models

import (
	"time"
)

// ShareLink 对应 share_links 表，表示一个模型的可分享句柄
// 记录只会被逻辑禁用（IsActive=false），不会被任何接口物理删除
type ShareLink struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ModelID        uint64     `gorm:"not null;index" json:"modelId"`
	AuthKey        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"authKey"` // 256位随机值的十六进制编码，创建后不可变
	SharedBy       uint64     `gorm:"not null;index" json:"sharedBy"`
	IsActive       bool       `gorm:"not null;default:true" json:"isActive"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expiresAt"` // 创建时间 + TTL，创建后不可变
	AccessCount    int64      `gorm:"not null;default:0" json:"accessCount"`
	LastAccessedAt *time.Time `gorm:"default:null" json:"lastAccessedAt"`
	ShareURL       string     `gorm:"type:varchar(255);not null" json:"shareUrl"` // 由 BaseURL + AuthKey 派生
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// 定义 GORM 关联，方便预加载
	Model *Model `gorm:"foreignKey:ModelID" json:"model,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (ShareLink) TableName() string {
	return "share_links"
}

// IsExpired 判断分享链接是否已过期
func (s *ShareLink) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsValid 分享链接处于激活状态且未过期
func (s *ShareLink) IsValid(now time.Time) bool {
	return s.IsActive && !s.IsExpired(now)
}
