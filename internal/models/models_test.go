package models

import (
	"errors"
	"strings"
	"testing"
)

func TestPost_Preview(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text is kept", "Hello", "Hello"},
		{"exactly fifteen characters", "123456789012345", "123456789012345"},
		{"long text is cut", "This text is definitely longer than fifteen", "This text is de"},
		{"multibyte runes are not split", strings.Repeat("пост", 5), strings.Repeat("пост", 3) + "пос"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := Post{Text: tt.text}
			if got := post.Preview(); got != tt.want {
				t.Errorf("Post.Preview() = %q, want %q", got, tt.want)
			}
			if post.String() != post.Preview() {
				t.Errorf("Post.String() should match the preview")
			}
		})
	}
}

func TestGroup_String(t *testing.T) {
	group := Group{Title: "Cats", Slug: "cats"}
	if group.String() != "Cats" {
		t.Errorf("expected group string 'Cats', got %s", group.String())
	}
}

func TestComment_String(t *testing.T) {
	comment := Comment{Text: "nice"}
	if comment.String() != "nice" {
		t.Errorf("expected comment string 'nice', got %s", comment.String())
	}
}

func TestUser_FullName(t *testing.T) {
	if got := (User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}).FullName(); got != "Leo Tolstoy" {
		t.Errorf("expected 'Leo Tolstoy', got %q", got)
	}
	if got := (User{Username: "leo"}).FullName(); got != "leo" {
		t.Errorf("expected username fallback 'leo', got %q", got)
	}
}

func TestUser_IsAdmin(t *testing.T) {
	var nobody *User
	if nobody.IsAdmin() {
		t.Error("nil user must not be admin")
	}
	if (&User{Role: UserRoleUser}).IsAdmin() {
		t.Error("regular user must not be admin")
	}
	if !(&User{Role: UserRoleAdmin}).IsAdmin() {
		t.Error("admin role must be admin")
	}
}

func TestFollow_BeforeCreate(t *testing.T) {
	self := &Follow{UserID: 3, AuthorID: 3}
	if err := self.BeforeCreate(nil); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}

	other := &Follow{UserID: 3, AuthorID: 4}
	if err := other.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAll_MigrationOrder(t *testing.T) {
	models := All()
	if len(models) != 5 {
		t.Fatalf("expected 5 models, got %d", len(models))
	}
	if _, ok := models[0].(*User); !ok {
		t.Errorf("users must migrate first, got %T", models[0])
	}
	if _, ok := models[len(models)-1].(*Follow); !ok {
		t.Errorf("follows must migrate last, got %T", models[len(models)-1])
	}
}
