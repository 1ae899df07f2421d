package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"preloader/internal/blob"
	"preloader/internal/config"
	"preloader/internal/index"
	"preloader/internal/ingest"
	"preloader/internal/journal"
	"preloader/internal/logging"
	"preloader/internal/recognize"
)

// Server bundles the HTTP surface over the index, blob store, ingestion
// pipeline, and recognition scorer.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *index.Store
	blobs   *blob.Store
	ingest  *ingest.Service
	scorer  *recognize.Scorer
	events  *journal.Store
	started time.Time
}

// Options collects the dependencies for NewServer. Scorer and Events may be
// nil; the matching endpoints then degrade (503 for recognition, no
// auditing).
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *index.Store
	Blobs  *blob.Store
	Ingest *ingest.Service
	Scorer *recognize.Scorer
	Events *journal.Store
}

// NewServer validates the options and returns a server ready to build its
// router.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil || opts.Blobs == nil || opts.Ingest == nil {
		return nil, errMissingDependency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		cfg:     opts.Config,
		logger:  logging.NewComponentLogger(logger, "httpapi"),
		store:   opts.Store,
		blobs:   opts.Blobs,
		ingest:  opts.Ingest,
		scorer:  opts.Scorer,
		events:  opts.Events,
		started: time.Now(),
	}, nil
}

// Router builds the gin engine with all routes registered. Capture clients
// run from file:// pages and browser extensions, so CORS is wide open.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLog())
	router.Use(corsMiddleware())

	router.GET("/api/health", s.handleHealth)
	router.POST("/api/ocr", s.handleOCR)
	router.POST("/api/patients/register", s.handleRegister)
	router.POST("/api/images", s.handleImageUpload)
	router.GET("/api/patients", s.handleListPatients)
	router.GET("/api/patients/:key", s.handleGetPatient)
	router.GET("/api/images/:key/:filename", s.handleServeImage)
	router.POST("/api/patients/:key/request-refresh", s.handleRequestRefresh)
	router.GET("/api/pending_refreshes", s.handlePendingRefreshes)
	router.DELETE("/api/pending_refreshes/:key", s.handleClearRefresh)
	router.DELETE("/api/clear", s.handleClearAll)
	router.GET("/viewer", s.handleViewer)

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)))
	}
}
