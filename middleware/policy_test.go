package middleware

import (
	"testing"

	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

func kindOf(t *testing.T, err error) utils.ErrorKind {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr, ok := utils.AsAppError(err)
	if !ok {
		t.Fatalf("not an AppError: %v", err)
	}
	return appErr.Kind
}

func TestAuthorize(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.RoleUser}
	other := &models.User{ID: 2, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	tests := []struct {
		name     string
		actor    *models.User
		resource string
		action   Action
		ownerID  uint
		wantKind utils.ErrorKind // empty means allowed
	}{
		{"anonymous cannot create posts", nil, "post", ActionCreate, 0, utils.KindAuthentication},
		{"user can create posts", other, "post", ActionCreate, 0, ""},
		{"owner can update own post", owner, "post", ActionUpdate, 1, ""},
		{"non-owner cannot update post", other, "post", ActionUpdate, 1, utils.KindAuthorization},
		{"admin can update any post", admin, "post", ActionUpdate, 1, ""},
		{"owner can delete own post", owner, "post", ActionDelete, 1, ""},
		{"non-owner cannot delete post", other, "post", ActionDelete, 1, utils.KindAuthorization},
		{"anonymous cannot like", nil, "post", ActionLike, 0, utils.KindAuthentication},
		{"user can like", other, "post", ActionLike, 0, ""},
		{"user can comment", other, "post", ActionComment, 0, ""},
		{"comment author can delete own comment", owner, "comment", ActionDelete, 1, ""},
		{"other user cannot delete comment", other, "comment", ActionDelete, 1, utils.KindAuthorization},
		{"admin can delete any comment", admin, "comment", ActionDelete, 1, ""},
		{"non-admin cannot list users", other, "user", ActionList, 0, utils.KindAuthorization},
		{"admin can list users", admin, "user", ActionList, 0, ""},
		{"user can update self", owner, "user", ActionUpdate, 1, ""},
		{"user cannot update others", other, "user", ActionUpdate, 1, utils.KindAuthorization},
		{"non-admin cannot delete users", owner, "user", ActionDelete, 0, utils.KindAuthorization},
		{"admin can delete users", admin, "user", ActionDelete, 0, ""},
		{"non-admin cannot create categories", other, "category", ActionCreate, 0, utils.KindAuthorization},
		{"admin can create categories", admin, "category", ActionCreate, 0, ""},
		{"anonymous admin action fails authentication", nil, "category", ActionCreate, 0, utils.KindAuthentication},
		{"unlisted combination defaults to admin", other, "post", ActionList, 0, utils.KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.resource, tt.action, tt.ownerID)
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("Authorize = %v, want allowed", err)
				}
				return
			}
			if got := kindOf(t, err); got != tt.wantKind {
				t.Errorf("error kind = %v, want %v", got, tt.wantKind)
			}
		})
	}
}
