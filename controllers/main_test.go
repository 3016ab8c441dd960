package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/routes"
	"github.com/gopress/gopress/utils"
)

// The handler tests need a real MySQL instance. Point TEST_DATABASE_DSN at a
// throwaway database to run them:
//
//	TEST_DATABASE_DSN='gopress:gopress@tcp(127.0.0.1:3306)/gopress_test?charset=utf8mb4&parseTime=True&loc=Local' go test ./controllers/
//
// The suite truncates its tables before each test.
func testEnv(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	gin.SetMode(gin.TestMode)
	// Redis points at a closed port so every cache and blacklist call takes
	// the memory fallback and runs stay deterministic.
	config.SetForTesting(config.AppConfig{
		AppPort:              "0",
		AppEnv:               "test",
		JWTSecret:            "handler-test-secret",
		JWTIssuer:            "gopress",
		JWTAudience:          "gopress-api",
		TokenTTLHours:        1,
		RedisHost:            "127.0.0.1",
		RedisPort:            1,
		AllowedOrigins:       []string{"*"},
		RateLimitPerMinute:   100000,
		UploadDir:            t.TempDir(),
		MaxUploadBytes:       5 << 20,
		BaseURL:              "http://test.local",
		ResetTokenTTLMinutes: 30,
	})

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Post{},
		&models.Comment{}, &models.PostLike{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"post_likes", "comments", "posts", "categories", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}

	return db, routes.SetupRouter(db)
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// registerUser creates an account through the API and returns its id and
// session token.
func registerUser(t *testing.T, r http.Handler, username string) (uint, string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "Passw0rd",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body.String())
	}
	var body struct {
		User  models.PublicProfile `json:"user"`
		Token string               `json:"token"`
	}
	decode(t, w, &body)
	if body.User.ID == 0 || body.Token == "" {
		t.Fatalf("register %s: incomplete response %s", username, w.Body.String())
	}
	return body.User.ID, body.Token
}

func registerAdmin(t *testing.T, db *gorm.DB, r http.Handler, username string) (uint, string) {
	t.Helper()
	id, token := registerUser(t, r, username)
	if err := db.Model(&models.User{}).Where("id = ?", id).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote %s: %v", username, err)
	}
	return id, token
}

func createCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	cat := models.Category{Name: name, Slug: utils.Slugify(name), Active: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return cat
}

// createPost goes through the API so slugs and sanitization apply.
func createPost(t *testing.T, r http.Handler, token string, categoryID uint, title, status string) models.Post {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":       title,
		"content":     fmt.Sprintf("Content of %s.", title),
		"category_id": categoryID,
		"status":      status,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post %q: status %d, body %s", title, w.Code, w.Body.String())
	}
	var body struct {
		Post models.Post `json:"post"`
	}
	decode(t, w, &body)
	return body.Post
}
