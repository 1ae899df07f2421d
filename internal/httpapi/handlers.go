package httpapi

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"preloader/internal/ingest"
	"preloader/internal/journal"
	"preloader/internal/logging"
	"preloader/internal/pacs"
)

var errMissingDependency = errors.New("httpapi requires config, index store, blob store, and ingest service")

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleOCR(c *gin.Context) {
	data, ok := s.readUpload(c)
	if !ok {
		return
	}
	if s.scorer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recognition is disabled"})
		return
	}

	res, err := s.scorer.Best(c.Request.Context(), data)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"text":        res.Text,
		"status":      "ok",
		"dates_found": res.DatesFound,
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	reg := ingest.Registration{
		Name:       c.PostForm("patient_name"),
		DOB:        c.PostForm("patient_dob"),
		ClinicDate: c.PostForm("clinic_date"),
	}

	key, _, err := s.ingest.Register(c.Request.Context(), reg)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered", "key": key})
}

func (s *Server) handleImageUpload(c *gin.Context) {
	data, ok := s.readUpload(c)
	if !ok {
		return
	}

	imageIndex, err := ingest.ParseImageIndex(c.DefaultPostForm("image_index", "0"))
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	up := ingest.Upload{
		Data:             data,
		PatientName:      c.PostForm("patient_name"),
		PatientDOB:       c.PostForm("patient_dob"),
		StudyUID:         c.PostForm("study_uid"),
		StudyDescription: c.PostForm("study_description"),
		StudyDate:        c.PostForm("study_date"),
		ImageIndex:       imageIndex,
		ImageUID:         c.PostForm("image_uid"),
		ClinicDate:       c.PostForm("clinic_date"),
	}

	result, err := s.ingest.Ingest(c.Request.Context(), up)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	if result.Status == ingest.StatusSkipped {
		c.JSON(http.StatusOK, gin.H{
			"status":  "skipped",
			"reason":  "duplicate",
			"patient": result.PatientKey,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "saved",
		"filename": result.Filename,
		"patient":  result.PatientKey,
	})
}

func (s *Server) handleListPatients(c *gin.Context) {
	patients, err := s.store.ListPatients()
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (s *Server) handleGetPatient(c *gin.Context) {
	patient, err := s.store.GetPatient(c.Param("key"))
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        patient.Name,
		"dob":         patient.DOB,
		"clinic_date": patient.ClinicDate,
		"image_count": patient.ImageCount,
		"studies":     patient.Studies,
	})
}

func (s *Server) handleServeImage(c *gin.Context) {
	key := c.Param("key")
	filename := c.Param("filename")
	if strings.Contains(key, "..") || strings.Contains(filename, "..") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if !s.blobs.Exists(key, filename) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	c.Header("Content-Type", "image/jpeg")
	c.File(s.blobs.Path(key, filename))
}

func (s *Server) handleRequestRefresh(c *gin.Context) {
	key := c.Param("key")
	if err := s.store.RequestRefresh(key); err != nil {
		s.writeServiceError(c, err)
		return
	}
	s.record(c, journal.Event{Kind: journal.KindRefreshRequested, PatientKey: key})
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

func (s *Server) handlePendingRefreshes(c *gin.Context) {
	pending, err := s.store.PendingRefreshes()
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func (s *Server) handleClearRefresh(c *gin.Context) {
	key := c.Param("key")
	if err := s.store.ClearRefresh(key); err != nil {
		s.writeServiceError(c, err)
		return
	}
	s.record(c, journal.Event{Kind: journal.KindRefreshCleared, PatientKey: key})
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) handleClearAll(c *gin.Context) {
	if err := s.store.ClearAll(); err != nil {
		s.writeServiceError(c, err)
		return
	}
	s.record(c, journal.Event{Kind: journal.KindCleared})
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) handleViewer(c *gin.Context) {
	viewerPath := strings.TrimSpace(s.cfg.Paths.ViewerPath)
	if viewerPath != "" {
		if html, err := os.ReadFile(viewerPath); err == nil {
			c.Data(http.StatusOK, "text/html; charset=utf-8", html)
			return
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Viewer not found</h1>"))
}

// readUpload extracts the "image" multipart file. On failure it writes the
// 400 response itself and returns ok=false.
func (s *Server) readUpload(c *gin.Context) ([]byte, bool) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return nil, false
	}
	return data, true
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pacs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pacs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pacs.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			logging.String("path", c.Request.URL.Path),
			logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) record(c *gin.Context, evt journal.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(c.Request.Context(), evt); err != nil {
		s.logger.Warn("journal write failed", logging.Error(err))
	}
}
