package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]{1,150}$`)

var ErrUsernameTaken = errors.New("a user with that username already exists")

type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

type UserService struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

func NewUserService(db *gorm.DB, images storage.ImageStore) *UserService {
	return &UserService{DB: db, Images: images}
}

func (s *UserService) Register(ctx context.Context, input SignupInput) (*models.User, error) {
	verr := &ValidationError{}

	username := strings.TrimSpace(input.Username)
	switch {
	case username == "":
		verr.Add("username", msgRequired)
	case !usernamePattern.MatchString(username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		taken, err := s.usernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("username", ErrUsernameTaken.Error())
		}
	}

	switch {
	case input.Password1 == "":
		verr.Add("password1", msgRequired)
	case len(input.Password1) < minPasswordLength:
		verr.Add("password1", "This password is too short. It must contain at least 8 characters.")
	}
	if input.Password2 == "" {
		verr.Add("password2", msgRequired)
	} else if input.Password1 != input.Password2 {
		verr.Add("password2", "The two password fields didn't match.")
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password1)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		Role:         models.UserRoleUser,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	logger.InfoWithUser(userIDString(&user), "user_registered", map[string]interface{}{
		"username": user.Username,
	})
	return &user, nil
}

func (s *UserService) usernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		logger.Warn("login_failed", map[string]interface{}{
			"username": user.Username,
		})
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// Delete removes a user with their posts, the comments under those posts,
// their own comments and every follow edge touching them.
func (s *UserService) Delete(ctx context.Context, username string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	var images []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("author_id = ? AND image IS NOT NULL", user.ID).
			Pluck("image", &images).Error; err != nil {
			return err
		}

		authored := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", user.ID)
		if err := tx.Where("post_id IN (?) OR author_id = ?", authored, user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", user.ID, user.ID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		return err
	}

	if s.Images != nil {
		for _, name := range images {
			if name == "" {
				continue
			}
			if err := s.Images.Delete(ctx, name); err != nil {
				logger.Warn("user_image_cleanup_failed", map[string]interface{}{
					"object_name": name,
					"error":       err.Error(),
				})
			}
		}
	}

	logger.Info("user_deleted", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"images":   len(images),
	})
	return nil
}

func userIDString(u *models.User) string {
	if u == nil {
		return ""
	}
	return strconv.FormatUint(uint64(u.ID), 10)
}
