// Package httpapi exposes the photo synchronization services over HTTP
// using gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// PhotoUploader is implemented by *services.UploadService.
type PhotoUploader interface {
	Upload(ctx context.Context, galleryID, ownerID int64, files []services.UploadFile) (*services.UploadResult, error)
}

// ObjectDeleter is implemented by *services.DeletionService.
type ObjectDeleter interface {
	DeletePhoto(ctx context.Context, photoID, requesterID int64) error
	DeleteGallery(ctx context.Context, galleryID, requesterID int64) error
}

type HTTPServer struct {
	address       string
	uploader      PhotoUploader
	deleter       ObjectDeleter
	logger        logging.Logger
	jwtSecret     []byte
	maxUploadSize int64
}

func NewHTTPServer(a string, l logging.Logger, up PhotoUploader, del ObjectDeleter, secretKey string, maxUploadSize int64) *HTTPServer {
	return &HTTPServer{
		address:       a,
		logger:        l.With("module", "http_server"),
		uploader:      up,
		deleter:       del,
		jwtSecret:     []byte(secretKey),
		maxUploadSize: maxUploadSize,
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/healthz", func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	g := r.Group("/galleries", s.accessTokenMiddleware())
	g.POST("/:id/photos", s.uploadPhotos)
	g.POST("/photos/delete", s.deletePhoto)
	g.POST("/delete", s.deleteGallery)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Serve returns as soon as Shutdown starts; in-flight handlers are done
	// only once Shutdown itself returns.
	if err := <-shutdownDone; err != nil {
		s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}
