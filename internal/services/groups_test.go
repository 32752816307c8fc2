package services

import (
	"context"
	"errors"
	"testing"

	"github.com/doroshenkokb/mini-social-network/internal/models"
)

func TestGroupService_Create(t *testing.T) {
	db := openTestDB(t)
	svc := NewGroupService(db)
	ctx := context.Background()

	group, err := svc.Create(ctx, GroupInput{Title: "Cats", Slug: "cats", Description: "All about cats"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if group.ID == 0 || group.Slug != "cats" {
		t.Fatalf("unexpected group: %+v", group)
	}

	_, err = svc.Create(ctx, GroupInput{Title: "Cats again", Slug: "cats", Description: "dup"})
	if verr, ok := AsValidationError(err); !ok || verr.Fields["slug"] == "" {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}

	_, err = svc.Create(ctx, GroupInput{Title: "", Slug: "bad slug", Description: ""})
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"title", "slug", "description"} {
		if verr.Fields[field] == "" {
			t.Errorf("expected error on %s, got %+v", field, verr.Fields)
		}
	}

	fetched, err := svc.GetBySlug(ctx, "cats")
	if err != nil || fetched.ID != group.ID {
		t.Fatalf("expected to fetch cats, got %v", err)
	}
}

func TestGroupService_DeleteKeepsPosts(t *testing.T) {
	db := openTestDB(t)
	svc := NewGroupService(db)
	author := createUser(t, db, "leo")
	group := createGroup(t, db, "cats")
	post := createPost(t, db, author, group, "in a group")

	if err := svc.Delete(context.Background(), "cats"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var stored models.Post
	if err := db.First(&stored, post.ID).Error; err != nil {
		t.Fatalf("post should survive group deletion: %v", err)
	}
	if stored.GroupID != nil {
		t.Fatalf("expected post to lose its group, got %v", *stored.GroupID)
	}

	if err := svc.Delete(context.Background(), "cats"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAccessService(t *testing.T) {
	access := NewAccessService()
	author := &models.User{BaseModel: models.BaseModel{ID: 1}}
	other := &models.User{BaseModel: models.BaseModel{ID: 2}, Role: models.UserRoleAdmin}
	post := &models.Post{AuthorID: 1}

	if !access.CanEditPost(author, post) {
		t.Error("author must be able to edit their post")
	}
	if access.CanEditPost(other, post) {
		t.Error("admins are not authors and must not edit others' posts")
	}
	if access.CanEditPost(nil, post) {
		t.Error("anonymous users must not edit posts")
	}
	if !access.CanManageSite(other) || access.CanManageSite(author) {
		t.Error("only admins manage the site")
	}
}
