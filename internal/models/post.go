package models

// PreviewLength is how many characters of a post stand in for its title.
const PreviewLength = 15

// Post is ordered newest first everywhere it is listed. CreatedAt is its
// publication date and is never rewritten by an edit.
type Post struct {
	BaseModel
	Text     string    `json:"text" gorm:"type:text;not null"`
	GroupID  *uint     `json:"groupID,omitempty" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	AuthorID uint      `json:"authorID" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"foreignKey:AuthorID"`
	Image    *string   `json:"image,omitempty" gorm:"type:varchar(255)"`
	Comments []Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (p Post) Preview() string {
	runes := []rune(p.Text)
	if len(runes) > PreviewLength {
		return string(runes[:PreviewLength])
	}
	return p.Text
}

func (p Post) String() string {
	return p.Preview()
}

// PostOrder is the listing order: newest first, id breaks ties.
const PostOrder = "posts.created_at DESC, posts.id DESC"
