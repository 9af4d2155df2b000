package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/nail-salon/internal/auth"
)

const testJWTSecret = "test-secret"

var pngPayload = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRpixels")

func newTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.MaxMultipartMemory = MaxUploadSize
	RegisterRoutes(router, zap.NewNop(), auth.JWTMiddleware(secret))
	return router
}

func TestProcessImageEchoesImage(t *testing.T) {
	router := newTestRouter("")
	body, contentType := buildMultipartBody(t, "application/octet-stream", pngPayload, "255,139,126", true)

	req := httptest.NewRequest(http.MethodPost, "/process-image", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", "req-42")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	if !bytes.Equal(resp.Body.Bytes(), pngPayload) {
		t.Fatalf("expected echoed image, got %q", resp.Body.Bytes())
	}
	if got := resp.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	if got := resp.Header().Get(AppliedColorHeader); got != "255,139,126" {
		t.Fatalf("expected applied color 255,139,126, got %q", got)
	}
	if got := resp.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestProcessImageRejectsLargeUpload(t *testing.T) {
	router := newTestRouter("")
	body, contentType := buildMultipartBody(t, "image/png", bytes.Repeat([]byte("a"), MaxUploadSize+1), "1,2,3", true)

	req := httptest.NewRequest(http.MethodPost, "/process-image", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.Code)
	}
}

func TestProcessImageRejectsUnsupportedContentType(t *testing.T) {
	router := newTestRouter("")
	body, contentType := buildMultipartBody(t, "text/plain", []byte("hello"), "1,2,3", true)

	req := httptest.NewRequest(http.MethodPost, "/process-image", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, resp.Code)
	}
}

func TestProcessImageRejectsBadForms(t *testing.T) {
	router := newTestRouter("")

	cases := []struct {
		name      string
		color     string
		withColor bool
		image     []byte
	}{
		{name: "missing color", image: pngPayload},
		{name: "out of range color", color: "256,0,0", withColor: true, image: pngPayload},
		{name: "bracketed color", color: "(1,2,3)", withColor: true, image: pngPayload},
		{name: "hex color", color: "#FF8B7E", withColor: true, image: pngPayload},
		{name: "missing image", color: "1,2,3", withColor: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				body        *bytes.Buffer
				contentType string
			)
			if tc.image == nil {
				body, contentType = buildColorOnlyBody(t, tc.color)
			} else {
				body, contentType = buildMultipartBody(t, "image/png", tc.image, tc.color, tc.withColor)
			}

			req := httptest.NewRequest(http.MethodPost, "/process-image", body)
			req.Header.Set("Content-Type", contentType)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, resp.Code, resp.Body.String())
			}
			var payload map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
				t.Fatalf("expected json error body, got %q", resp.Body.String())
			}
		})
	}
}

func TestProcessImageRequiresTokenWhenSecretSet(t *testing.T) {
	router := newTestRouter(testJWTSecret)

	body, contentType := buildMultipartBody(t, "image/png", pngPayload, "1,2,3", true)
	req := httptest.NewRequest(http.MethodPost, "/process-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.Code)
	}

	token, err := auth.SignToken(testJWTSecret, "session-1", time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	body, contentType = buildMultipartBody(t, "image/png", pngPayload, "1,2,3", true)
	req = httptest.NewRequest(http.MethodPost, "/process-image", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(testJWTSecret)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
}

func TestImageContentType(t *testing.T) {
	cases := []struct {
		declared string
		data     []byte
		want     string
	}{
		{"image/jpeg", []byte("anything"), "image/jpeg"},
		{"", pngPayload, "image/png"},
		{"application/octet-stream", pngPayload, "image/png"},
		{"application/octet-stream", []byte("plain words"), ""},
		{"text/plain", pngPayload, ""},
	}
	for _, tc := range cases {
		if got := imageContentType(tc.declared, tc.data); got != tc.want {
			t.Fatalf("imageContentType(%q): expected %q, got %q", tc.declared, tc.want, got)
		}
	}
}

func buildMultipartBody(t *testing.T, contentType string, payload []byte, colorValue string, withColor bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="hand.jpg"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	if withColor {
		if err := writer.WriteField("color", colorValue); err != nil {
			t.Fatalf("failed to write color: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func buildColorOnlyBody(t *testing.T, colorValue string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("color", colorValue); err != nil {
		t.Fatalf("failed to write color: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
