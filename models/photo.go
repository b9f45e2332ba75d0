package models

import "time"

type Photo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ImageURL   string    `gorm:"column:image_url;not null" json:"image_url"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`                                         // Foreign key to Category
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"` // Belongs to one Category
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
