package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/nail-salon/internal/auth"
	"github.com/example/nail-salon/internal/capture"
	"github.com/example/nail-salon/internal/color"
	"github.com/example/nail-salon/internal/config"
	"github.com/example/nail-salon/internal/handlers"
	"github.com/example/nail-salon/internal/httpclient"
	"github.com/example/nail-salon/internal/logging"
	"github.com/example/nail-salon/internal/usecase"
)

const usage = `usage: nail-salon <command> [flags]

commands:
  apply    upload a hand photo with a nail color and save the result
  palette  list the named colors accepted by -color
  stub     run a local /process-image endpoint that echoes the photo`

var errUsage = errors.New(usage)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "apply":
		return runApply(args[1:], stdout)
	case "palette":
		return runPalette(stdout)
	case "stub":
		return runStub(args[1:])
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func runApply(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "optional YAML config file")
	imagePath := fs.String("image", "", "hand photo to upload (required)")
	colorSpec := fs.String("color", "", `nail color: "r,g,b", "#RRGGBB" or a palette name (default from config)`)
	outPath := fs.String("out", "", "where to write the processed image (default <image>-nails<ext>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		return errors.New("apply: -image is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := httpclient.NewImageProcessor(httpclient.Options{
		Endpoint:      cfg.Endpoint,
		ImageFilename: cfg.ImageFilename,
		AuthSecret:    cfg.AuthSecret,
	}, logger)
	if err != nil {
		return err
	}

	camera := capture.Camera{
		Permission: capture.StaticPermission(true),
		Source:     capture.FileSource{Path: *imagePath},
	}
	session := usecase.NewSession(camera, client, logger, usecase.WithInitialColor(cfg.DefaultColor))

	if *colorSpec != "" {
		selected, err := color.Parse(*colorSpec)
		if err != nil {
			return err
		}
		session.SelectColor(selected)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := session.Capture(ctx); err != nil {
		return describe(session, err)
	}
	if err := session.Submit(ctx); err != nil {
		return describe(session, err)
	}

	dst := *outPath
	if dst == "" {
		dst = defaultOutPath(*imagePath)
	}
	processed := session.Processed()
	if err := os.WriteFile(dst, processed, 0o644); err != nil {
		return fmt.Errorf("write processed image: %w", err)
	}

	fmt.Fprintf(stdout, "applied %s (%s): wrote %d bytes to %s\n", session.Color(), session.Color().Hex(), len(processed), dst)
	return nil
}

// describe prefers the user-facing notice over the raw error.
func describe(session *usecase.Session, err error) error {
	if notice := session.Notice(); notice != nil {
		return errors.New(notice.Message)
	}
	return err
}

func defaultOutPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "-nails" + ext
}

func runPalette(stdout io.Writer) error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHEX\tRGB\tTEXT")
	for _, swatch := range color.Palette() {
		text := "light"
		if swatch.Color.PrefersDarkForeground() {
			text = "dark"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", swatch.Name, swatch.Color.Hex(), swatch.Color, text)
	}
	fmt.Fprintf(w, "default\t%s\t%s\t-\n", color.Default.Hex(), color.Default)
	return w.Flush()
}

func runStub(args []string) error {
	fs := flag.NewFlagSet("stub", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "optional YAML config file")
	addr := fs.String("addr", "", "listen address (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.StubAddr = *addr
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	server := &http.Server{
		Addr:              cfg.StubAddr,
		Handler:           newStubRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("stub processor listening", zap.String("addr", cfg.StubAddr), zap.Bool("auth", cfg.AuthSecret != ""))
	return serveHTTPServer(server, 15*time.Second, logger)
}

func newStubRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(logger))
	r.MaxMultipartMemory = handlers.MaxUploadSize
	handlers.RegisterRoutes(r, logger, auth.JWTMiddleware(cfg.AuthSecret))
	return r
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
