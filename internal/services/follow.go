package services

import (
	"context"

	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowService struct {
	DB *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{DB: db}
}

// Follow records user -> author once. Repeating it changes nothing and a
// self-follow is refused with ErrSelfFollow.
func (s *FollowService) Follow(ctx context.Context, user, author *models.User) error {
	if user.ID == author.ID {
		return ErrSelfFollow
	}

	follow := models.Follow{UserID: user.ID, AuthorID: author.ID}
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithUser(userIDString(user), "follow_created", map[string]interface{}{
			"author_id": author.ID,
			"author":    author.Username,
		})
	}
	return nil
}

// Unfollow removes the edge if it exists.
func (s *FollowService) Unfollow(ctx context.Context, user, author *models.User) error {
	result := s.DB.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithUser(userIDString(user), "follow_deleted", map[string]interface{}{
			"author_id": author.ID,
			"author":    author.Username,
		})
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// Following lists the authors userID follows, by username.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var authors []models.User
	err := s.DB.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("users.username ASC").
		Find(&authors).Error
	return authors, err
}

func (s *FollowService) FollowerCount(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
