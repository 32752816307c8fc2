package services

import "github.com/doroshenkokb/mini-social-network/internal/models"

type AccessService struct{}

func NewAccessService() *AccessService {
	return &AccessService{}
}

// CanEditPost is true only for the post's author.
func (a *AccessService) CanEditPost(user *models.User, post *models.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return user.ID != 0 && user.ID == post.AuthorID
}

func (a *AccessService) CanManageSite(user *models.User) bool {
	return user.IsAdmin()
}
