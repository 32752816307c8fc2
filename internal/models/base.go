package models

import "time"

// BaseModel carries the numeric primary key used in page URLs (/posts/1/).
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt"`
}
