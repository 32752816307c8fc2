package models

import "strings"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User is a post author. Everyone who can log in can publish.
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	FirstName    string    `json:"firstName" gorm:"type:varchar(150)"`
	LastName     string    `json:"lastName" gorm:"type:varchar(150)"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Posts        []Post    `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments     []Comment `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// FullName falls back to the username, like the author header on a profile.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
