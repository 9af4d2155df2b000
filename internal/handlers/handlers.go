package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/nail-salon/internal/color"
	"github.com/example/nail-salon/internal/logging"
)

// MaxUploadSize caps the image part accepted by the stub endpoint.
const MaxUploadSize = 10 << 20

// formOverhead leaves room for multipart boundaries and the color field.
const formOverhead = 64 << 10

// AppliedColorHeader echoes the parsed color back to the caller.
const AppliedColorHeader = "X-Applied-Color"

const requestIDHeader = "X-Request-ID"

// RegisterRoutes wires the loopback processing endpoint to the Gin router.
// It checks the request against the wire contract and answers with the
// uploaded image unchanged.
func RegisterRoutes(router *gin.Engine, logger *zap.Logger, authMiddleware gin.HandlerFunc) {
	logger = logger.Named("stub")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/process-image", authMiddleware, func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		opLogger := logging.WithOperation(logger, "stub.process_image", requestID)

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+formOverhead)

		file, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}

		rawColor, ok := c.GetPostForm("color")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "color is required"})
			return
		}
		applied, err := color.ParseTriple(rawColor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}
		if len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is empty"})
			return
		}

		contentType := imageContentType(file.Header.Get("Content-Type"), data)
		if contentType == "" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "image part must be an image"})
			return
		}

		opLogger.Info("processed image",
			zap.String("color", applied.String()),
			zap.String("content_type", contentType),
			zap.Int("bytes", len(data)),
		)
		c.Header(AppliedColorHeader, applied.String())
		c.Data(http.StatusOK, contentType, data)
	})
}

// imageContentType trusts a declared image/* type, sniffs generic or
// missing declarations and returns "" for anything that is not an image.
func imageContentType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if declared != "" && declared != "application/octet-stream" {
		return ""
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
