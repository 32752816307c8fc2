package services

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultMaxImageBytes = 5 * 1024 * 1024
	imagePrefix          = "posts/"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageUpload is a picture attached through the post form.
type ImageUpload struct {
	Filename string
	Data     []byte
}

type PostInput struct {
	Text       string
	GroupID    *uint
	Image      *ImageUpload
	ClearImage bool
}

// PostList is one page of a feed.
type PostList struct {
	Page  utils.Page
	Posts []models.Post
}

type PostService struct {
	DB            *gorm.DB
	Images        storage.ImageStore
	PerPage       int
	MaxImageBytes int64
}

func NewPostService(db *gorm.DB, images storage.ImageStore, perPage int) *PostService {
	if perPage < 1 {
		perPage = utils.DefaultPerPage
	}
	return &PostService{
		DB:            db,
		Images:        images,
		PerPage:       perPage,
		MaxImageBytes: DefaultMaxImageBytes,
	}
}

// feed starts every post listing: author and group come back in the same
// query through LEFT JOINs, newest first.
func (s *PostService) feed(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Model(&models.Post{}).
		Joins("Author").
		Joins("Group").
		Order(models.PostOrder)
}

func (s *PostService) list(query *gorm.DB, rawPage string) (*PostList, error) {
	var posts []models.Post
	page, err := utils.Paginate(query, rawPage, s.PerPage, &posts)
	if err != nil {
		return nil, err
	}
	return &PostList{Page: page, Posts: posts}, nil
}

func (s *PostService) ListAll(ctx context.Context, rawPage string) (*PostList, error) {
	return s.list(s.feed(ctx), rawPage)
}

func (s *PostService) ListByGroup(ctx context.Context, slug, rawPage string) (*models.Group, *PostList, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "slug = ?", slug).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}

	list, err := s.list(s.feed(ctx).Where("posts.group_id = ?", group.ID), rawPage)
	if err != nil {
		return nil, nil, err
	}
	return &group, list, nil
}

func (s *PostService) ListByAuthor(ctx context.Context, username, rawPage string) (*models.User, *PostList, error) {
	var author models.User
	if err := s.DB.WithContext(ctx).First(&author, "username = ?", username).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}

	list, err := s.list(s.feed(ctx).Where("posts.author_id = ?", author.ID), rawPage)
	if err != nil {
		return nil, nil, err
	}
	return &author, list, nil
}

// ListFollowed returns posts by every author userID follows. Following
// nobody yields an empty first page.
func (s *PostService) ListFollowed(ctx context.Context, userID uint, rawPage string) (*PostList, error) {
	followed := s.DB.WithContext(ctx).
		Model(&models.Follow{}).
		Select("author_id").
		Where("user_id = ?", userID)

	return s.list(s.feed(ctx).Where("posts.author_id IN (?)", followed), rawPage)
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.DB.WithContext(ctx).
		Joins("Author").
		Joins("Group").
		First(&post, "posts.id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &post, nil
}

func (s *PostService) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.DB.WithContext(ctx).
		Joins("Author").
		Where("comments.post_id = ?", postID).
		Order(models.CommentOrder).
		Find(&comments).Error
	return comments, err
}

func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *PostService) Create(ctx context.Context, author *models.User, input PostInput) (*models.Post, error) {
	text, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Text:     text,
		GroupID:  input.GroupID,
		AuthorID: author.ID,
	}

	imagePath, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}
	post.Image = imagePath

	if err := s.DB.WithContext(ctx).Create(&post).Error; err != nil {
		s.dropImage(ctx, imagePath)
		return nil, err
	}

	logger.InfoWithUser(userIDString(author), "post_created", map[string]interface{}{
		"post_id":  post.ID,
		"group_id": post.GroupID,
		"image":    imagePath != nil,
	})
	return &post, nil
}

// Update rewrites text, group and image of a post the actor authored. The
// publication date is left alone.
func (s *PostService) Update(ctx context.Context, actor *models.User, id uint, input PostInput) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	text, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"text":     text,
		"group_id": input.GroupID,
	}

	oldImage := post.Image
	newImage, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}
	replaced := newImage != nil || input.ClearImage
	if replaced {
		updates["image"] = newImage
	}

	if err := s.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		s.dropImage(ctx, newImage)
		return nil, err
	}
	if replaced {
		s.dropImage(ctx, oldImage)
	}

	logger.InfoWithUser(userIDString(actor), "post_updated", map[string]interface{}{
		"post_id":  post.ID,
		"group_id": input.GroupID,
	})
	return s.Get(ctx, post.ID)
}

func (s *PostService) AddComment(ctx context.Context, author *models.User, postID uint, text string) (*models.Comment, error) {
	var exists int64
	if err := s.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	text = strings.TrimSpace(text)
	if text == "" {
		verr := &ValidationError{}
		verr.Add("text", msgRequired)
		return nil, verr
	}

	comment := models.Comment{
		PostID:   &postID,
		AuthorID: author.ID,
		Text:     text,
	}
	if err := s.DB.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	logger.InfoWithUser(userIDString(author), "comment_created", map[string]interface{}{
		"post_id":    postID,
		"comment_id": comment.ID,
	})
	return &comment, nil
}

func (s *PostService) validate(ctx context.Context, input PostInput) (string, error) {
	verr := &ValidationError{}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		verr.Add("text", msgRequired)
	}

	if input.GroupID != nil {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ?", *input.GroupID).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			verr.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		}
	}

	if input.Image != nil {
		if msg := s.checkImage(input.Image); msg != "" {
			verr.Add("image", msg)
		}
	}

	return text, verr.Err()
}

func (s *PostService) checkImage(img *ImageUpload) string {
	if len(img.Data) == 0 {
		return "The submitted file is empty."
	}
	if s.Images == nil {
		return "Image uploads are not available."
	}
	limit := s.MaxImageBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	if int64(len(img.Data)) > limit {
		return "The submitted image is too large."
	}
	if _, ok := imageExtensions[http.DetectContentType(img.Data)]; !ok {
		return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}
	return ""
}

func (s *PostService) storeImage(ctx context.Context, img *ImageUpload) (*string, error) {
	if img == nil {
		return nil, nil
	}
	contentType := http.DetectContentType(img.Data)
	name := imagePrefix + uuid.New().String() + imageExtensions[contentType]
	if err := s.Images.Upload(ctx, name, bytes.NewReader(img.Data), int64(len(img.Data)), contentType); err != nil {
		return nil, err
	}
	return &name, nil
}

func (s *PostService) dropImage(ctx context.Context, name *string) {
	if name == nil || s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, *name); err != nil {
		logger.Warn("post_image_cleanup_failed", map[string]interface{}{
			"object_name": *name,
			"error":       err.Error(),
		})
	}
}

// IsImagePath guards the media route against reading outside post images.
func IsImagePath(name string) bool {
	clean := path.Clean("/" + name)[1:]
	return clean == name && strings.HasPrefix(name, imagePrefix) && len(name) > len(imagePrefix)
}
