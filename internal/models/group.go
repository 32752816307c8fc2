package models

type Group struct {
	BaseModel
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	Posts       []Post `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

func (g Group) String() string {
	return g.Title
}
