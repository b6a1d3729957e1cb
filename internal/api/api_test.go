package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/api"
	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/mocks"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

type testServer struct {
	router   *gin.Engine
	services *service.Services
	store    *mocks.Store
	storage  *mocks.MockStorage
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-with-enough-length-000",
			Issuer:          "newsdesk-test",
			AccessTokenTTL:  5 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			LoginRPS:        100,
			LoginBurst:      100,
		},
		Media: config.MediaConfig{
			Backend:      config.MediaBackendSupabase,
			PublicPrefix: "/media",
			ImageMaxSize: 5 << 20,
			VideoMaxSize: 500 << 20,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func setupTestRouter(t *testing.T) *testServer {
	return setupTestRouterWithConfig(t, testConfig())
}

func setupTestRouterWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := mocks.NewStore()
	storage := mocks.NewMockStorage()
	services := service.NewServices(store.Repositories(), cfg, service.Deps{
		Storage: storage,
		Revoker: mocks.NewMockRevoker(time.Now),
	}, zerolog.Nop())

	ctx := context.Background()
	for _, u := range []struct {
		name string
		role models.Role
	}{
		{"admin", models.RoleAdmin},
		{"editor", models.RoleEditor},
		{"viewer", models.RoleViewer},
	} {
		if _, err := services.Auth.CreateUser(ctx, u.name, "password123", u.role); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	log := zerolog.Nop()
	return &testServer{
		router:   api.NewRouter(services, cfg, nil, log),
		services: services,
		store:    store,
		storage:  storage,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, "POST", "/login/", "", map[string]string{"username": username, "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with %d: %s", w.Code, w.Body.String())
	}
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return response["token"].(string)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON %q: %v", w.Body.String(), err)
	}
	return response
}

func (s *testServer) seed(t *testing.T, token string) (categoryID, writerID int64) {
	t.Helper()
	w := s.do(t, "POST", "/categories/", token, map[string]interface{}{
		"name":          "राजनीति",
		"nameEnglish":   "Politics",
		"subcategories": []string{"National", "International"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Category create failed with %d: %s", w.Code, w.Body.String())
	}
	categoryID = int64(decode(t, w)["id"].(float64))

	w = s.do(t, "POST", "/writers/", token, map[string]interface{}{
		"name":       "Sita Sharma",
		"email":      "sita@example.com",
		"role":       "Reporter",
		"department": "Politics",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Writer create failed with %d: %s", w.Code, w.Body.String())
	}
	writerID = int64(decode(t, w)["id"].(float64))
	return categoryID, writerID
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "newsdesk-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

type failingDB struct{}

func (failingDB) HealthCheck(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	s := setupTestRouter(t)
	router := api.NewRouter(s.services, testConfig(), failingDB{}, zerolog.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if status := decode(t, w)["status"]; status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got %v", status)
	}
}

func TestLogin(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, "POST", "/login/", "", map[string]string{"username": "admin", "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["message"] != "Login successful" {
		t.Errorf("Unexpected message %v", response["message"])
	}
	if response["token"] == "" || response["refresh"] == "" {
		t.Error("Expected access and refresh tokens")
	}
	user := response["user"].(map[string]interface{})
	if user["username"] != "admin" || user["role"] != "admin" || user["is_superuser"] != true {
		t.Errorf("Unexpected user %v", user)
	}
}

func TestLogin_Failures(t *testing.T) {
	s := setupTestRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantDetail string
	}{
		{"wrong password", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown user", map[string]string{"username": "ghost", "password": "password123"}, http.StatusUnauthorized, "Invalid credentials"},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest, "Username and password are required."},
		{"malformed body", "{not json", http.StatusBadRequest, "Malformed request body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "POST", "/login", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if detail := decode(t, w)["detail"]; detail != tt.wantDetail {
				t.Errorf("Expected detail %q, got %v", tt.wantDetail, detail)
			}
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.LoginRPS = 0.001
	cfg.Auth.LoginBurst = 2
	s := setupTestRouterWithConfig(t, cfg)

	body := map[string]string{"username": "admin", "password": "nope"}
	for i := 0; i < 2; i++ {
		if w := s.do(t, "POST", "/login", "", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("Attempt %d: expected status 401, got %d", i+1, w.Code)
		}
	}
	if w := s.do(t, "POST", "/login", "", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", w.Code)
	}
}

func TestCheckAuthAndLogout(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, "GET", "/check-auth/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}
	if decode(t, w)["isAuthenticated"] != false {
		t.Error("Expected isAuthenticated false")
	}

	token := s.login(t, "editor")
	w = s.do(t, "GET", "/check-auth/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["isAuthenticated"] != true {
		t.Error("Expected isAuthenticated true")
	}
	if user := response["user"].(map[string]interface{}); user["role"] != "editor" {
		t.Errorf("Expected editor role, got %v", user["role"])
	}

	w = s.do(t, "POST", "/logout/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if decode(t, w)["message"] != "Logout successful" {
		t.Error("Unexpected logout message")
	}

	if w := s.do(t, "GET", "/check-auth/", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected revoked token to be rejected, got %d", w.Code)
	}
	if w := s.do(t, "GET", "/writers/", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected revoked token to be rejected, got %d", w.Code)
	}
}

func TestTokenRefresh(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, "POST", "/login", "", map[string]string{"username": "editor", "password": "password123"})
	refresh := decode(t, w)["refresh"].(string)

	w = s.do(t, "POST", "/token/refresh/", "", map[string]string{"refresh": refresh})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	access := decode(t, w)["token"].(string)
	if w := s.do(t, "GET", "/check-auth", access, nil); w.Code != http.StatusOK {
		t.Errorf("Expected refreshed token to authenticate, got %d", w.Code)
	}

	// a refresh token is not an access token
	if w := s.do(t, "GET", "/check-auth", refresh, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected refresh token to be rejected as access token, got %d", w.Code)
	}
}

func TestPermissions(t *testing.T) {
	s := setupTestRouter(t)
	viewer := s.login(t, "viewer")
	editor := s.login(t, "editor")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"writers need auth", "GET", "/writers/", "", http.StatusUnauthorized},
		{"viewer reads writers", "GET", "/writers/", viewer, http.StatusOK},
		{"viewer cannot create writer", "POST", "/writers/", viewer, http.StatusForbidden},
		{"categories are public", "GET", "/categories/", "", http.StatusOK},
		{"category writes need auth", "POST", "/categories/", "", http.StatusUnauthorized},
		{"articles are public", "GET", "/articles/", "", http.StatusOK},
		{"stats need auth", "GET", "/article-stats/", "", http.StatusUnauthorized},
		{"editor reads stats", "GET", "/article-stats/", editor, http.StatusOK},
		{"videos need auth", "GET", "/videos/", "", http.StatusUnauthorized},
		{"viewer cannot upload", "POST", "/upload/", viewer, http.StatusForbidden},
		{"viewer cannot export", "GET", "/articles/export", viewer, http.StatusForbidden},
		{"garbage token", "GET", "/writers", "not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.method == "POST" {
				body = map[string]string{}
			}
			w := s.do(t, tt.method, tt.path, tt.token, body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestTrailingSlashOptional(t *testing.T) {
	s := setupTestRouter(t)

	for _, path := range []string{"/categories", "/categories/", "/articles", "/articles/"} {
		if w := s.do(t, "GET", path, "", nil); w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestArticleLifecycle(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")
	categoryID, writerID := s.seed(t, token)

	w := s.do(t, "POST", "/articles/", token, map[string]interface{}{
		"title":       "Budget passed",
		"excerpt":     "Parliament passed the budget",
		"content":     "<p>Full story</p><script>alert(1)</script>",
		"category":    categoryID,
		"subcategory": "National",
		"author":      writerID,
		"status":      "published",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	article := decode(t, w)
	articleID := int64(article["id"].(float64))
	if strings.Contains(article["content"].(string), "<script>") {
		t.Error("Expected script to be stripped from content")
	}
	if category := article["category"].(map[string]interface{}); category["name"] != "राजनीति" {
		t.Errorf("Expected embedded category, got %v", category)
	}

	w = s.do(t, "GET", fmt.Sprintf("/categories/%d/", categoryID), "", nil)
	if count := decode(t, w)["articlesCount"]; count != float64(1) {
		t.Errorf("Expected category articlesCount 1, got %v", count)
	}

	w = s.do(t, "GET", "/articles/?status=published&search=budget", "", nil)
	page := decode(t, w)
	if page["total"] != float64(1) {
		t.Errorf("Expected 1 matching article, got %v", page["total"])
	}

	w = s.do(t, "PATCH", fmt.Sprintf("/articles/%d/", articleID), token, map[string]interface{}{"isHot": true})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["isHot"] != true {
		t.Error("Expected isHot to be set")
	}

	w = s.do(t, "DELETE", fmt.Sprintf("/categories/%d/", categoryID), token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected category with articles to be protected, got %d", w.Code)
	}

	w = s.do(t, "DELETE", fmt.Sprintf("/articles/%d/", articleID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if w := s.do(t, "GET", fmt.Sprintf("/articles/%d", articleID), "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = s.do(t, "GET", fmt.Sprintf("/writers/%d/", writerID), token, nil)
	if count := decode(t, w)["articles_count"]; count != float64(0) {
		t.Errorf("Expected writer articles_count 0, got %v", count)
	}
}

func TestArticleValidationErrors(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")
	categoryID, writerID := s.seed(t, token)

	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{
			"unknown subcategory",
			map[string]interface{}{"title": "T", "excerpt": "E", "content": "<p>C</p>", "category": categoryID, "author": writerID, "subcategory": "Sports"},
			"subcategory",
		},
		{
			"missing author",
			map[string]interface{}{"title": "T", "excerpt": "E", "content": "<p>C</p>", "category": categoryID, "author": 999},
			"author",
		},
		{
			"missing title",
			map[string]interface{}{"excerpt": "E", "content": "<p>C</p>", "category": categoryID, "author": writerID},
			"title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "POST", "/articles/", token, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			response := decode(t, w)
			if response["detail"] == "" {
				t.Error("Expected a detail message")
			}
			errs, _ := response["errors"].(map[string]interface{})
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestFeaturedCapOverHTTP(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")
	categoryID, writerID := s.seed(t, token)

	ids := make([]int64, 0, 4)
	for i := 0; i < 4; i++ {
		w := s.do(t, "POST", "/articles/", token, map[string]interface{}{
			"title":      fmt.Sprintf("Featured %d", i),
			"excerpt":    "E",
			"content":    "<p>C</p>",
			"category":   categoryID,
			"author":     writerID,
			"isFeatured": true,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("Create failed with %d: %s", w.Code, w.Body.String())
		}
		ids = append(ids, int64(decode(t, w)["id"].(float64)))
	}

	w := s.do(t, "GET", "/articles/?featured=true", "", nil)
	if total := decode(t, w)["total"]; total != float64(3) {
		t.Errorf("Expected 3 featured articles, got %v", total)
	}
	w = s.do(t, "GET", fmt.Sprintf("/articles/%d/", ids[0]), "", nil)
	if decode(t, w)["isFeatured"] != false {
		t.Error("Expected the oldest featured article to be unfeatured")
	}
}

func TestArticleExport(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "admin")
	categoryID, writerID := s.seed(t, token)
	for i := 0; i < 2; i++ {
		s.do(t, "POST", "/articles/", token, map[string]interface{}{
			"title": fmt.Sprintf("A%d", i), "excerpt": "E", "content": "<p>C</p>", "category": categoryID, "author": writerID,
		})
	}

	w := s.do(t, "GET", "/articles/export?format=ndjson", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Expected ndjson content type, got %s", ct)
	}
	if lines := strings.Count(strings.TrimSpace(w.Body.String()), "\n") + 1; lines != 2 {
		t.Errorf("Expected 2 lines, got %d", lines)
	}

	w = s.do(t, "GET", "/articles/export?format=xml", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Expected JSON error, got content type %s", ct)
	}
}

func TestVideoLiveEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")

	w := s.do(t, "POST", "/videos/", token, map[string]interface{}{"title": "Evening bulletin"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	id := int64(decode(t, w)["id"].(float64))
	livePath := fmt.Sprintf("/videos/%d/live/", id)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantDetail string
	}{
		{"string is not an action", map[string]interface{}{"is_live": "true"}, http.StatusBadRequest, "No valid action."},
		{"empty body", map[string]interface{}{}, http.StatusBadRequest, "No valid action."},
		{"go live", map[string]interface{}{"is_live": true}, http.StatusOK, "Video is now live."},
		{"end live", map[string]interface{}{"is_live": false}, http.StatusOK, "Video live stream ended and archived."},
		{"archived cannot go live", map[string]interface{}{"is_live": true}, http.StatusBadRequest, `Cannot go live from status "archived".`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "PATCH", livePath, token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if detail := decode(t, w)["detail"]; detail != tt.wantDetail {
				t.Errorf("Expected detail %q, got %v", tt.wantDetail, detail)
			}
		})
	}

	w = s.do(t, "GET", fmt.Sprintf("/videos/%d", id), token, nil)
	video := decode(t, w)
	if video["status"] != "archived" || video["is_live"] != false {
		t.Errorf("Expected archived video, got status=%v is_live=%v", video["status"], video["is_live"])
	}

	if w := s.do(t, "PATCH", "/videos/999/live/", token, map[string]interface{}{"is_live": true}); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestVideoCategories(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")

	w := s.do(t, "POST", "/video-categories/", token, map[string]interface{}{"name": "Interviews"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	categoryID := int64(decode(t, w)["id"].(float64))

	w = s.do(t, "POST", "/videos/", token, map[string]interface{}{"title": "Q&A", "category": categoryID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, "GET", fmt.Sprintf("/videos/?category=%d", categoryID), token, nil)
	if total := decode(t, w)["total"]; total != float64(1) {
		t.Errorf("Expected 1 video in category, got %v", total)
	}
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	part.Write(data)
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	token := s.login(t, "editor")
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89"), make([]byte, 64)...)

	body, contentType := multipartBody(t, "front page.png", "image/png", png)
	req := httptest.NewRequest("POST", "/upload/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if url := decode(t, w)["url"]; url != "/media/uploads/front_page.png" {
		t.Errorf("Unexpected url %v", url)
	}

	req = httptest.NewRequest("POST", "/upload/", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if detail := decode(t, w)["detail"]; detail != "No file provided." {
		t.Errorf("Unexpected detail %v", detail)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/articles/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "http://localhost:5173" {
		t.Errorf("Unexpected allowed origin %q", origin)
	}
}
