package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PostsHandler struct {
	Posts  *services.PostService
	Groups *services.GroupService
	Access *services.AccessService
}

func NewPostsHandler(posts *services.PostService, groups *services.GroupService, access *services.AccessService) *PostsHandler {
	return &PostsHandler{Posts: posts, Groups: groups, Access: access}
}

func (h *PostsHandler) Index(c *fiber.Ctx) error {
	list, err := h.Posts.ListAll(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/index", fiber.Map{
		"Posts": list.Posts,
		"Page":  list.Page,
	})
}

func (h *PostsHandler) GroupPosts(c *fiber.Ctx) error {
	group, list, err := h.Posts.ListByGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return serviceError(err)
	}
	return render(c, fiber.StatusOK, "posts/group_list", fiber.Map{
		"Title": group.Title,
		"Group": group,
		"Posts": list.Posts,
		"Page":  list.Page,
	})
}

func (h *PostsHandler) Detail(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	return h.renderDetail(c, id, nil, nil)
}

func (h *PostsHandler) renderDetail(c *fiber.Ctx, id uint, form, errs map[string]string) error {
	ctx := c.UserContext()
	post, err := h.Posts.Get(ctx, id)
	if err != nil {
		return serviceError(err)
	}

	comments, err := h.Posts.Comments(ctx, post.ID)
	if err != nil {
		return err
	}
	postCount, err := h.Posts.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return err
	}

	return render(c, fiber.StatusOK, "posts/post_detail", fiber.Map{
		"Title":     "Post " + post.Preview(),
		"Post":      post,
		"Comments":  comments,
		"PostCount": postCount,
		"CanEdit":   h.Access.CanEditPost(middleware.GetCurrentUser(c), post),
		"Form":      form,
		"Errors":    errs,
	})
}

func (h *PostsHandler) CreateForm(c *fiber.Ctx) error {
	return h.renderForm(c, nil, nil, nil, nil)
}

// Create publishes a post for the current user and sends them to their
// profile. Invalid input re-renders the form with the field errors.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	input, form := h.parsePostForm(c)

	_, err := h.Posts.Create(c.UserContext(), user, input)
	if verr, ok := services.AsValidationError(err); ok {
		return h.renderForm(c, nil, input.GroupID, form, verr.Fields)
	}
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(user.Username), fiber.StatusFound)
}

func (h *PostsHandler) EditForm(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	post, err := h.Posts.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(err)
	}
	if !h.Access.CanEditPost(middleware.GetCurrentUser(c), post) {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	return h.renderForm(c, post, post.GroupID, map[string]string{"text": post.Text}, nil)
}

func (h *PostsHandler) Edit(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	input, form := h.parsePostForm(c)
	_, err = h.Posts.Update(c.UserContext(), middleware.GetCurrentUser(c), id, input)
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Redirect(postURL(id), fiber.StatusFound)
	case errors.Is(err, services.ErrNotFound):
		return fiber.ErrNotFound
	}
	if verr, ok := services.AsValidationError(err); ok {
		post, getErr := h.Posts.Get(c.UserContext(), id)
		if getErr != nil {
			return serviceError(getErr)
		}
		return h.renderForm(c, post, input.GroupID, form, verr.Fields)
	}
	if err != nil {
		return err
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

func (h *PostsHandler) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	text := c.FormValue("text")
	_, err = h.Posts.AddComment(c.UserContext(), middleware.GetCurrentUser(c), id, text)
	if verr, ok := services.AsValidationError(err); ok {
		return h.renderDetail(c, id, map[string]string{"text": text}, verr.Fields)
	}
	if err != nil {
		return serviceError(err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

func (h *PostsHandler) renderForm(c *fiber.Ctx, post *models.Post, selected *uint, form, errs map[string]string) error {
	groups, err := h.Groups.List(c.UserContext())
	if err != nil {
		return err
	}

	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	data := fiber.Map{
		"Title":         title,
		"Groups":        groups,
		"SelectedGroup": selected,
		"IsEdit":        post != nil,
		"Form":          form,
		"Errors":        errs,
	}
	if post != nil {
		data["Post"] = post
	}
	return render(c, fiber.StatusOK, "posts/create_post", data)
}

// parsePostForm reads the multipart post form. An unparseable group id
// becomes a reference to a group that cannot exist so validation reports it.
func (h *PostsHandler) parsePostForm(c *fiber.Ctx) (services.PostInput, map[string]string) {
	text := c.FormValue("text")
	input := services.PostInput{
		Text:       text,
		ClearImage: c.FormValue("image-clear") != "",
	}

	if raw := strings.TrimSpace(c.FormValue("group")); raw != "" {
		var groupID uint
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			groupID = uint(parsed)
		}
		input.GroupID = &groupID
	}

	if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
		if f, err := fh.Open(); err == nil {
			data, readErr := io.ReadAll(io.LimitReader(f, h.imageLimit()+1))
			_ = f.Close()
			if readErr == nil {
				input.Image = &services.ImageUpload{Filename: fh.Filename, Data: data}
			}
		}
	}

	return input, map[string]string{"text": text}
}

func (h *PostsHandler) imageLimit() int64 {
	if h.Posts.MaxImageBytes > 0 {
		return h.Posts.MaxImageBytes
	}
	return services.DefaultMaxImageBytes
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
