package models

type Comment struct {
	BaseModel
	PostID   *uint  `json:"postID" gorm:"index"`
	Post     *Post  `json:"-" gorm:"foreignKey:PostID"`
	AuthorID uint   `json:"authorID" gorm:"not null;index"`
	Author   User   `json:"author" gorm:"foreignKey:AuthorID"`
	Text     string `json:"text" gorm:"type:text;not null"`
}

func (c Comment) String() string {
	return c.Text
}

// CommentOrder lists a thread oldest first.
const CommentOrder = "comments.created_at ASC, comments.id ASC"
