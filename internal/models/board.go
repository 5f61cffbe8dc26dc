package models

import (
	"time"
)

// Board is a named category that owns posts. Slug never changes after creation.
type Board struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description string    `json:"description"`
	Order       int       `gorm:"column:sort_order;default:0;index" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
