package controllers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gopress/gopress/models"
)

func TestUserListAdminOnly(t *testing.T) {
	db, r := testEnv(t)
	_, userToken := registerUser(t, r, "alice")
	_, adminToken := registerAdmin(t, db, r, "admin")

	if w := doJSON(t, r, http.MethodGet, "/api/v1/users", userToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("non-admin list status = %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/v1/users", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want 401", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/users?search=ali", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []models.User `json:"items"`
	}
	decode(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].Username != "alice" {
		t.Errorf("search result = %+v", resp.Items)
	}
}

func TestUserGetProjection(t *testing.T) {
	db, r := testEnv(t)
	aliceID, aliceToken := registerUser(t, r, "alice")
	_, bobToken := registerUser(t, r, "bob")
	_, adminToken := registerAdmin(t, db, r, "admin")

	path := fmt.Sprintf("/api/v1/users/%d", aliceID)

	// Strangers and anonymous callers get the public projection without the
	// email address; self and admin see the full record.
	for name, tokenAndLeak := range map[string]struct {
		token     string
		wantEmail bool
	}{
		"anonymous": {"", false},
		"stranger":  {bobToken, false},
		"self":      {aliceToken, true},
		"admin":     {adminToken, true},
	} {
		w := doJSON(t, r, http.MethodGet, path, tokenAndLeak.token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s get status = %d", name, w.Code)
		}
		got := strings.Contains(w.Body.String(), "alice@example.com")
		if got != tokenAndLeak.wantEmail {
			t.Errorf("%s sees email = %v, want %v", name, got, tokenAndLeak.wantEmail)
		}
	}

	if w := doJSON(t, r, http.MethodGet, "/api/v1/users/999999", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing user status = %d, want 404", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/v1/users/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", w.Code)
	}
}

func TestUserUpdatePermissions(t *testing.T) {
	db, r := testEnv(t)
	aliceID, aliceToken := registerUser(t, r, "alice")
	_, bobToken := registerUser(t, r, "bob")
	_, adminToken := registerAdmin(t, db, r, "admin")

	path := fmt.Sprintf("/api/v1/users/%d", aliceID)

	if w := doJSON(t, r, http.MethodPut, path, bobToken, gin.H{"bio": "intruder"}); w.Code != http.StatusForbidden {
		t.Errorf("stranger update status = %d, want 403", w.Code)
	}

	// Self-service edits work, but role escalation stays admin-only.
	if w := doJSON(t, r, http.MethodPut, path, aliceToken, gin.H{"bio": "hello"}); w.Code != http.StatusOK {
		t.Errorf("self update status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, path, aliceToken, gin.H{"role": "admin"}); w.Code != http.StatusForbidden {
		t.Errorf("self role escalation status = %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, path, adminToken, gin.H{"role": "admin"}); w.Code != http.StatusOK {
		t.Errorf("admin role change status = %d", w.Code)
	}

	var stored models.User
	if err := db.First(&stored, aliceID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Role != models.RoleAdmin || stored.Profile.Bio != "hello" {
		t.Errorf("stored user = role %q bio %q", stored.Role, stored.Profile.Bio)
	}
}

func TestUserUpdateRejectsTakenUsername(t *testing.T) {
	_, r := testEnv(t)
	registerUser(t, r, "alice")
	bobID, bobToken := registerUser(t, r, "bob")

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", bobID), bobToken, gin.H{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
	}
}

func TestUserDeleteCascades(t *testing.T) {
	db, r := testEnv(t)
	cat := createCategory(t, db, "General")
	authorID, authorToken := registerUser(t, r, "author")
	_, readerToken := registerUser(t, r, "reader")
	adminID, adminToken := registerAdmin(t, db, r, "admin")

	post := createPost(t, r, authorToken, cat.ID, "Doomed Post", models.StatusPublished)
	doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), readerToken, gin.H{"content": "so long"})
	doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", post.ID), readerToken, nil)

	if w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", authorID), authorToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("non-admin delete status = %d, want 403", w.Code)
	}

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", authorID), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d, body %s", w.Code, w.Body.String())
	}

	var users, posts, comments, likes int64
	db.Model(&models.User{}).Where("id = ?", authorID).Count(&users)
	db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&posts)
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)
	if users != 0 || posts != 0 || comments != 0 || likes != 0 {
		t.Errorf("leftovers after cascade: users=%d posts=%d comments=%d likes=%d", users, posts, comments, likes)
	}

	if w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", adminID), adminToken, nil); w.Code != http.StatusBadRequest {
		t.Errorf("admin self-delete status = %d, want 400", w.Code)
	}
}

func TestUserStats(t *testing.T) {
	db, r := testEnv(t)
	cat := createCategory(t, db, "General")
	authorID, authorToken := registerUser(t, r, "author")
	_, readerToken := registerUser(t, r, "reader")

	published := createPost(t, r, authorToken, cat.ID, "Visible", models.StatusPublished)
	createPost(t, r, authorToken, cat.ID, "Hidden", models.StatusDraft)

	doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", published.ID), "", nil)
	doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", published.ID), "", nil)
	doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", published.ID), readerToken, nil)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/stats", authorID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Stats struct {
			PostCount  int64 `json:"post_count"`
			TotalViews int64 `json:"total_views"`
			TotalLikes int64 `json:"total_likes"`
		} `json:"stats"`
	}
	decode(t, w, &resp)
	if resp.Stats.PostCount != 1 {
		t.Errorf("post_count = %d, want 1 (drafts excluded)", resp.Stats.PostCount)
	}
	if resp.Stats.TotalViews != 2 {
		t.Errorf("total_views = %d, want 2", resp.Stats.TotalViews)
	}
	if resp.Stats.TotalLikes != 1 {
		t.Errorf("total_likes = %d, want 1", resp.Stats.TotalLikes)
	}
}

func TestUserPostsListing(t *testing.T) {
	db, r := testEnv(t)
	cat := createCategory(t, db, "General")
	authorID, authorToken := registerUser(t, r, "author")

	createPost(t, r, authorToken, cat.ID, "Public Piece", models.StatusPublished)
	createPost(t, r, authorToken, cat.ID, "Private Draft", models.StatusDraft)

	path := fmt.Sprintf("/api/v1/users/%d/posts", authorID)

	w := doJSON(t, r, http.MethodGet, path, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", w.Code)
	}
	var resp struct {
		Items []models.Post `json:"items"`
	}
	decode(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].Status != models.StatusPublished {
		t.Errorf("anonymous author listing = %+v, want published only", resp.Items)
	}

	w = doJSON(t, r, http.MethodGet, path, authorToken, nil)
	resp.Items = nil
	decode(t, w, &resp)
	if len(resp.Items) != 2 {
		t.Errorf("author sees %d own posts, want 2", len(resp.Items))
	}
}
