package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/doroshenkokb/mini-social-network/internal/database"
	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	cache  *cache.PageCache
	images *memoryImages
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(":memory:")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	pageCache := cache.NewMemory(cache.DefaultTTL)
	images := &memoryImages{objects: map[string][]byte{}}

	app := NewApp(Deps{
		DB:      db,
		Images:  images,
		Cache:   pageCache,
		PerPage: 10,
	})

	return &testEnv{app: app, db: db, cache: pageCache, images: images}
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		t.Fatalf("failed generating session token: %v", err)
	}

	return user, token
}

func createTestGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()

	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func createTestPost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()

	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed creating test post: %v", err)
	}
	return post
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

// fetchCSRFToken loads a page the way a browser would before submitting a
// form and returns the token plus a Cookie header carrying it.
func fetchCSRFToken(t *testing.T, app *fiber.App, headers map[string]string) (string, string) {
	t.Helper()

	resp := performRequest(t, app, http.MethodGet, "/auth/login/", nil, headers)
	readBody(t, resp)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == CSRFCookie && cookie.Value != "" {
			header := CSRFCookie + "=" + cookie.Value
			if existing := headers["Cookie"]; existing != "" {
				header = existing + "; " + header
			}
			return cookie.Value, header
		}
	}
	t.Fatal("expected a csrf cookie on the login page")
	return "", ""
}

// browserHeaders adds a CSRF token to requests that rely on cookies. Bearer
// requests are exempt and go through unchanged.
func browserHeaders(t *testing.T, app *fiber.App, headers map[string]string) (map[string]string, string) {
	t.Helper()

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if requestHeaders["Authorization"] != "" {
		return requestHeaders, ""
	}
	token, cookie := fetchCSRFToken(t, app, headers)
	requestHeaders["Cookie"] = cookie
	return requestHeaders, token
}

func performFormRequest(t *testing.T, app *fiber.App, path string, form url.Values, headers map[string]string) *http.Response {
	t.Helper()

	requestHeaders, token := browserHeaders(t, app, headers)
	if token != "" && form.Get(CSRFField) == "" {
		form = cloneValues(form)
		form.Set(CSRFField, token)
	}
	requestHeaders["Content-Type"] = fiber.MIMEApplicationForm
	return performRequest(t, app, http.MethodPost, path, strings.NewReader(form.Encode()), requestHeaders)
}

// performRawFormRequest posts the form exactly as given, without a CSRF token.
func performRawFormRequest(t *testing.T, app *fiber.App, path string, form url.Values, headers map[string]string) *http.Response {
	t.Helper()

	requestHeaders := map[string]string{"Content-Type": fiber.MIMEApplicationForm}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	return performRequest(t, app, http.MethodPost, path, strings.NewReader(form.Encode()), requestHeaders)
}

func cloneValues(values url.Values) url.Values {
	clone := url.Values{}
	for key, list := range values {
		clone[key] = append([]string(nil), list...)
	}
	return clone
}

func performMultipartRequest(t *testing.T, app *fiber.App, path string, fields map[string]string, fileField, fileName string, fileData []byte, headers map[string]string) *http.Response {
	t.Helper()

	requestHeaders, token := browserHeaders(t, app, headers)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if token != "" {
		if err := writer.WriteField(CSRFField, token); err != nil {
			t.Fatalf("failed writing csrf field: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing field %s: %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed creating file part: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed writing file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders["Content-Type"] = writer.FormDataContentType()
	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}
	return string(raw)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw := readBody(t, resp)
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, raw)
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assertStatus(t, resp, http.StatusFound)
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func assertTemplate(t *testing.T, resp *http.Response, name string) {
	t.Helper()
	if got := resp.Header.Get(HeaderTemplate); got != name {
		t.Fatalf("expected template %q, got %q", name, got)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func postPath(id uint, suffix string) string {
	return fmt.Sprintf("/posts/%d/%s", id, suffix)
}

type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryImages) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

func (m *memoryImages) Download(_ context.Context, name string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
	}, nil
}

func (m *memoryImages) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
	return nil
}
