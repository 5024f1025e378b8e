package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"auctus/internal/handlers"
	"auctus/internal/logger"
	"auctus/internal/middleware"
	"auctus/internal/models"
	"auctus/internal/services"
	"auctus/internal/token"
	"auctus/internal/validator"
)

const websiteURL = "https://auctus.studio"

var allowedOrigins = []string{"https://auctus.studio", "http://localhost:8000"}

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Tokens *token.Manager
	Emails *capturingEmailSender
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// capturingEmailSender records outbound reset emails instead of sending them.
type capturingEmailSender struct {
	mu   sync.Mutex
	sent []string // reset URLs, in send order
}

func (c *capturingEmailSender) Configured() bool { return true }

func (c *capturingEmailSender) SendPasswordResetEmail(_, resetURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, resetURL)
	return nil
}

// lastResetToken returns the raw token from the most recent reset email.
func (c *capturingEmailSender) lastResetToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no reset email was sent")
	}
	u, err := url.Parse(c.sent[len(c.sent)-1])
	if err != nil {
		t.Fatalf("failed to parse reset URL: %v", err)
	}
	tok := u.Query().Get("token")
	if tok == "" {
		t.Fatalf("reset URL %q has no token parameter", c.sent[len(c.sent)-1])
	}
	return tok
}

func (c *capturingEmailSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.PasswordReset{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	tokens := token.NewManager("integration-access-secret", "integration-refresh-secret")
	emails := &capturingEmailSender{}

	// Services
	userService := services.NewUserService(db)
	resetService := services.NewPasswordResetService(db, userService, emails, websiteURL)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, resetService, auditService, tokens)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Router, wired the same way as cmd/api
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(allowedOrigins))
	router.HandleMethodNotAllowed = true

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/me/activity", auditHandler.ListActivity)

	return &testApp{DB: db, Router: router, Tokens: tokens, Emails: emails}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the code from an error response body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, username, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"username":%q,"password":%q,"confirmPassword":%q}`,
		email, username, password, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["accessToken"].(string), result["refreshToken"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["accessToken"].(string), result["refreshToken"].(string)
}
