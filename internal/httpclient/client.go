package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/nail-salon/internal/auth"
	"github.com/example/nail-salon/internal/color"
	"github.com/example/nail-salon/internal/imageprocessor"
	"github.com/example/nail-salon/internal/logging"
)

// Multipart field names of the processing endpoint.
const (
	ImageField = "image"
	ColorField = "color"
)

// RequestIDHeader carries the per-request UUID.
const RequestIDHeader = "X-Request-ID"

const operationSubmit = "httpclient.submit"

// Options configures a Client. Endpoint is required.
type Options struct {
	Endpoint      string
	ImageFilename string
	AuthSecret    string
	SessionID     string
	HTTPClient    *http.Client
	Now           func() time.Time
}

// Client talks to the image processing endpoint over multipart HTTP.
type Client struct {
	endpoint   string
	filename   string
	secret     string
	sessionID  string
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

var _ imageprocessor.Client = (*Client)(nil)

// NewImageProcessor returns a ready-to-use client for the processing endpoint.
func NewImageProcessor(opts Options, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, logging.NewOperationError("httpclient.new", "", fmt.Errorf("invalid endpoint %q", opts.Endpoint))
	}

	c := &Client{
		endpoint:   u.String(),
		filename:   opts.ImageFilename,
		secret:     strings.TrimSpace(opts.AuthSecret),
		sessionID:  opts.SessionID,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
		logger:     logger.Named("httpclient"),
	}
	if c.filename == "" {
		c.filename = "hand.jpg"
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// SessionID identifies this client in upload tokens.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Submit uploads the image and color in one request. It makes exactly one
// attempt; a non-200 status yields *imageprocessor.ServerError and any
// failure to complete the exchange yields *imageprocessor.TransportError.
func (c *Client) Submit(ctx context.Context, image []byte, col color.Color) ([]byte, error) {
	if len(image) == 0 {
		return nil, logging.NewOperationError(operationSubmit, "", imageprocessor.ErrEmptyImage)
	}

	requestID := uuid.NewString()
	opLogger := logging.WithOperation(c.logger, operationSubmit, requestID)

	body, contentType, err := encodeForm(image, col, c.filename)
	if err != nil {
		return nil, logging.NewOperationError(operationSubmit, requestID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, logging.NewOperationError(operationSubmit, requestID, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(RequestIDHeader, requestID)
	if c.secret != "" {
		token, err := auth.SignToken(c.secret, c.sessionID, c.now(), auth.DefaultTokenTTL)
		if err != nil {
			return nil, logging.NewOperationError(operationSubmit, requestID, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError(operationSubmit, requestID, imageprocessor.NewTransportError(unwrapURLError(err)))
		opLogger.Warn("upload failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		wrapped := logging.NewOperationError(operationSubmit, requestID, &imageprocessor.ServerError{StatusCode: resp.StatusCode})
		opLogger.Warn("processor rejected upload", zap.Int("status", resp.StatusCode))
		return nil, wrapped
	}

	processed, err := io.ReadAll(resp.Body)
	if err != nil {
		wrapped := logging.NewOperationError(operationSubmit, requestID, imageprocessor.NewTransportError(err))
		opLogger.Warn("reading processed image failed", zap.Error(wrapped))
		return nil, wrapped
	}

	opLogger.Debug("upload complete",
		zap.Int("image_bytes", len(image)),
		zap.Int("processed_bytes", len(processed)),
		zap.Duration("latency", time.Since(start)),
	)
	return processed, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(image []byte, col color.Color, filename string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, ImageField, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", partContentType(image))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	if err := writer.WriteField(ColorField, col.String()); err != nil {
		return nil, "", fmt.Errorf("write color field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// partContentType labels recognised image formats and falls back to
// application/octet-stream for everything else.
func partContentType(image []byte) string {
	if detected := http.DetectContentType(image); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return "application/octet-stream"
}

// unwrapURLError drops the *url.Error envelope so the detail names the cause
// rather than repeating the method and URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
