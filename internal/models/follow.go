package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow is a directed edge: User receives Author's posts in their feed.
type Follow struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userID" gorm:"not null;index;uniqueIndex:follows_unique;check:follows_not_self,user_id <> author_id"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"authorID" gorm:"not null;index;uniqueIndex:follows_unique"`
	Author    User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.UserID == f.AuthorID {
		return ErrSelfFollow
	}
	return nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
	}
}
