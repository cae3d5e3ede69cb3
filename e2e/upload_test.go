package e2e

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
)

func TestUploadVideo_Success(t *testing.T) {
	ta := setupApp(t)

	jobID := uploadVideo(t, ta.app)

	// The created job is immediately visible via the status endpoint
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/videos/"+jobID, "")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "uploaded" {
		t.Errorf("expected status 'uploaded', got %v", result["status"])
	}
	if result["fileName"] != "game1.mp4" {
		t.Errorf("expected fileName 'game1.mp4', got %v", result["fileName"])
	}
}

func TestUploadVideo_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/videos/", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestUploadVideo_NoFile(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/videos/", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
}

// uploadWithHeaders posts a multipart file with the given filename and
// content type, returning the raw response.
func uploadWithHeaders(t *testing.T, ta *testApp, filename, contentType string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write([]byte("file content")); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/videos/", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+generateToken(t))

	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// validationDetails pulls the field→tag map out of the error envelope.
func validationDetails(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", result)
	}
	details, ok := errObj["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected validation details, got %v", errObj["details"])
	}
	return details
}

func TestUploadVideo_InvalidContentType(t *testing.T) {
	ta := setupApp(t)

	resp := uploadWithHeaders(t, ta, "notes.txt", "text/plain")

	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	assertErrorCode(t, result, "VALIDATION_ERROR")
	if details := validationDetails(t, result); details["ContentType"] != "oneof" {
		t.Errorf("expected ContentType oneof violation, got %v", details)
	}
}

func TestUploadVideo_FileNameTooLong(t *testing.T) {
	ta := setupApp(t)

	resp := uploadWithHeaders(t, ta, strings.Repeat("a", 300)+".mp4", "video/mp4")

	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	assertErrorCode(t, result, "VALIDATION_ERROR")
	if details := validationDetails(t, result); details["FileName"] != "max" {
		t.Errorf("expected FileName max violation, got %v", details)
	}
}
