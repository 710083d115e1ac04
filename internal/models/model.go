package models

import (
	"time"
)

// Model 对应 models 表，描述一个 .glb 三维模型资源
type Model struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Description   string    `gorm:"type:varchar(500);not null" json:"description"`
	FilePath      string    `gorm:"type:varchar(255);not null" json:"filePath"` // 对象存储中的 key
	ThumbnailPath *string   `gorm:"type:varchar(255);default:null" json:"thumbnailPath"`
	FileSize      int64     `gorm:"type:bigint;not null;default:0" json:"fileSize"`
	MimeType      string    `gorm:"type:varchar(128);not null;default:''" json:"mimeType"`
	UploadedBy    uint64    `gorm:"not null;index" json:"uploadedBy"`
	IsActive      bool      `gorm:"not null;default:true" json:"isActive"`
	CategoryID    *uint64   `gorm:"default:null;index" json:"categoryId"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// 定义 GORM 关联，方便预加载
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:model_tags;" json:"tags,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (Model) TableName() string {
	return "models"
}
