package handlers

import (
	"errors"

	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	Posts   *services.PostService
	Users   *services.UserService
	Follows *services.FollowService
}

func NewProfileHandler(posts *services.PostService, users *services.UserService, follows *services.FollowService) *ProfileHandler {
	return &ProfileHandler{Posts: posts, Users: users, Follows: follows}
}

// Profile lists an author's posts. Following reports whether the viewer
// already follows this author.
func (h *ProfileHandler) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, list, err := h.Posts.ListByAuthor(ctx, c.Params("username"), c.Query("page"))
	if err != nil {
		return serviceError(err)
	}

	viewer := middleware.GetCurrentUser(c)
	following := false
	if viewer != nil && viewer.ID != author.ID {
		if following, err = h.Follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return err
		}
	}

	followers, err := h.Follows.FollowerCount(ctx, author.ID)
	if err != nil {
		return err
	}
	followingCount, err := h.Follows.FollowingCount(ctx, author.ID)
	if err != nil {
		return err
	}

	return render(c, fiber.StatusOK, "posts/profile", fiber.Map{
		"Title":          "Profile of " + author.FullName(),
		"Author":         author,
		"Posts":          list.Posts,
		"Page":           list.Page,
		"PostCount":      list.Page.Count,
		"Following":      following,
		"FollowerCount":  followers,
		"FollowingCount": followingCount,
		"IsSelf":         viewer != nil && viewer.ID == author.ID,
	})
}

// FollowIndex is the personal feed built from followed authors.
func (h *ProfileHandler) FollowIndex(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer := middleware.GetCurrentUser(c)

	list, err := h.Posts.ListFollowed(ctx, viewer.ID, c.Query("page"))
	if err != nil {
		return err
	}
	authors, err := h.Follows.Following(ctx, viewer.ID)
	if err != nil {
		return err
	}

	return render(c, fiber.StatusOK, "posts/follow", fiber.Map{
		"Posts":   list.Posts,
		"Page":    list.Page,
		"Authors": authors,
	})
}

// ConfirmFollow answers GET on the follow and unfollow links without touching
// the subscription; the profile page holds the forms that POST the change.
func (h *ProfileHandler) ConfirmFollow(c *fiber.Ctx) error {
	author, err := h.Users.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return serviceError(err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// Follow subscribes the viewer to an author. Following oneself is ignored.
func (h *ProfileHandler) Follow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := h.Users.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return serviceError(err)
	}

	err = h.Follows.Follow(ctx, middleware.GetCurrentUser(c), author)
	if err != nil && !errors.Is(err, services.ErrSelfFollow) {
		return err
	}
	return c.Redirect("/follow/", fiber.StatusFound)
}

func (h *ProfileHandler) Unfollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := h.Users.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return serviceError(err)
	}

	if err := h.Follows.Unfollow(ctx, middleware.GetCurrentUser(c), author); err != nil {
		return err
	}
	return c.Redirect("/follow/", fiber.StatusFound)
}
