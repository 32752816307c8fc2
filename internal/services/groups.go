package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

type GroupInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// GroupService manages communities. Groups are created by administrators
// only; authors just pick one when posting.
type GroupService struct {
	DB *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{DB: db}
}

func (s *GroupService) Create(ctx context.Context, input GroupInput) (*models.Group, error) {
	verr := &ValidationError{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		verr.Add("title", msgRequired)
	} else if len([]rune(title)) > 200 {
		verr.Add("title", "Ensure this value has at most 200 characters.")
	}

	slug := strings.TrimSpace(input.Slug)
	switch {
	case slug == "":
		verr.Add("slug", msgRequired)
	case !slugPattern.MatchString(slug):
		verr.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	default:
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Group{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			verr.Add("slug", "Group with this slug already exists.")
		}
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		verr.Add("description", msgRequired)
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	group := models.Group{Title: title, Slug: slug, Description: description}
	if err := s.DB.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, err
	}

	logger.Info("group_created", map[string]interface{}{
		"group_id": group.ID,
		"slug":     group.Slug,
	})
	return &group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.DB.WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error
	return groups, err
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "slug = ?", slug).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &group, nil
}

// Delete drops a group. Its posts survive without a group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	var detached int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Post{}).Where("group_id = ?", group.ID).Update("group_id", nil)
		if result.Error != nil {
			return result.Error
		}
		detached = result.RowsAffected
		return tx.Delete(&models.Group{}, group.ID).Error
	})
	if err != nil {
		return err
	}

	logger.Info("group_deleted", map[string]interface{}{
		"group_id":       group.ID,
		"slug":           group.Slug,
		"posts_detached": detached,
	})
	return nil
}
