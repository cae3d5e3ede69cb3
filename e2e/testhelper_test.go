package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/hoopsight/api/internal/auth"
	"github.com/hoopsight/api/internal/client"
	"github.com/hoopsight/api/internal/config"
	"github.com/hoopsight/api/internal/handler"
	"github.com/hoopsight/api/internal/middleware"
	"github.com/hoopsight/api/internal/service"
	"github.com/hoopsight/api/internal/store"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app  *fiber.App
	jobs store.JobStore
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients, so all services use their mock fallbacks.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	// Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	// External clients — all unconfigured so services fall back to mocks
	groqClient := client.NewGroqClient(&config.GroqConfig{}) // no API key → mock summaries
	annotator := client.NewMockVideoAnnotator()
	objectStorage := client.NewMemoryObjectStorage()

	// Stores
	jobStore := store.NewRedisJobStore(redisClient)
	artifactStore := store.NewR2ArtifactStore(objectStorage)

	// Services
	uploadService := service.NewUploadService(nil, jobStore) // nil storage → mock gs:// URIs
	summaryService := service.NewSummaryService(groqClient, 8)
	analysisService := service.NewAnalysisService(jobStore, artifactStore, annotator, summaryService, asynqClient, 5*time.Second)

	// Handlers
	uploadHandler := handler.NewUploadHandler(uploadService, validate)
	analysisHandler := handler.NewAnalysisHandler(analysisService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 200 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "hoopsight-api", "timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes (authenticated), very high rate limits so tests don't block
	api := app.Group("/api", authMiddleware.Authenticate())

	videos := api.Group("/videos")
	videos.Post("/", rateLimiter.UploadLimit(10000), uploadHandler.Video)
	videos.Post("/:jobId/analyze", rateLimiter.AnalyzeLimit(10000), analysisHandler.Analyze)
	videos.Post("/:jobId/retry", rateLimiter.AnalyzeLimit(10000), analysisHandler.Retry)
	videos.Get("/:jobId", analysisHandler.Status)
	videos.Get("/:jobId/summary", analysisHandler.Summary)

	return &testApp{app: app, jobs: jobStore}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.NewToken(testJWTSecret, "test-user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// uploadVideo performs an authenticated multipart video upload and
// returns the new job id.
func uploadVideo(t *testing.T, app *fiber.App) string {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="game1.mp4"`)
	header.Set("Content-Type", "video/mp4")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte("fake mp4 bytes")); err != nil {
		t.Fatalf("failed to write file content: %v", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/videos/", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+generateToken(t))

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	result := parseJSON(t, resp)
	jobID, _ := result["jobId"].(string)
	if jobID == "" {
		t.Fatal("expected 'jobId' in upload response")
	}
	return jobID
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the error envelope code.
func assertErrorCode(t *testing.T, result map[string]interface{}, expected string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", result)
	}
	if errObj["code"] != expected {
		t.Errorf("expected error code %s, got %v", expected, errObj["code"])
	}
}
