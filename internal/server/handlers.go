package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"subgen/internal/api"
	"subgen/internal/encoder"
	"subgen/internal/generate"
	"subgen/internal/logging"
	"subgen/internal/services"
)

const (
	srtContentType   = "application/x-subrip"
	defaultRunsLimit = 50
)

func (s *Server) handleIndex(c *gin.Context) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "ui unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleGenerate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes())

	transcript, err := s.readUpload(c, "transcript")
	if err != nil {
		s.rejectUpload(c, "transcript", err)
		return
	}
	audio, err := s.readUpload(c, "audio")
	if err != nil {
		s.rejectUpload(c, "audio", err)
		return
	}

	runID := s.orch.Start(s.runCtx, generate.Input{Transcript: transcript, Audio: audio})
	logging.WithContext(c.Request.Context(), s.logger).Info("generation requested",
		logging.RunID(runID),
		logging.String("transcript", transcript.Name),
		logging.String("audio", audio.Name),
	)
	c.JSON(http.StatusAccepted, api.GenerateResponse{RunID: runID})
}

// readUpload copies a form file into memory. The multipart temp files are
// removed when the request ends, while the run continues in the background.
func (s *Server) readUpload(c *gin.Context, field string) (encoder.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return encoder.File{}, err
	}
	data, err := readFormFile(header)
	if err != nil {
		return encoder.File{}, err
	}
	src := encoder.MultipartFile(header)
	return encoder.BytesFile(src.Name, src.DeclaredType, data), nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) rejectUpload(c *gin.Context, field string, err error) {
	status := http.StatusBadRequest
	message := fmt.Sprintf("%s file is required", field)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB)
	} else if !errors.Is(err, http.ErrMissingFile) {
		message = services.MessageCheckFiles
	}
	logging.WarnWithContext(logging.WithContext(c.Request.Context(), s.logger), "upload rejected", "upload_rejected",
		logging.String("field", field),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "select both a transcript and an audio file"),
		logging.String(logging.FieldImpact, "generation not started"),
	)
	c.JSON(status, api.ErrorResponse{Error: message})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, api.FromState(s.orch.Snapshot()))
}

func (s *Server) handleReset(c *gin.Context) {
	s.orch.Reset()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDownload(c *gin.Context) {
	st := s.orch.Snapshot()
	if !st.DownloadReady() {
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "no subtitles ready for download"})
		return
	}
	sendSRT(c, st.FileName(), st.SRT)
}

func (s *Server) handleWS(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request, s.orch)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusOK, api.RunListResponse{Runs: []api.Run{}})
		return
	}
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "list runs", err)
		return
	}
	c.JSON(http.StatusOK, api.RunListResponse{Runs: runs})
}

func (s *Server) lookupRun(c *gin.Context) (*api.Run, bool) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "history disabled"})
		return nil, false
	}
	run, err := s.runs.Describe(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "get run", err)
		return nil, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "run not found"})
		return nil, false
	}
	return run, true
}

func (s *Server) handleGetRun(c *gin.Context) {
	if run, ok := s.lookupRun(c); ok {
		c.JSON(http.StatusOK, run)
	}
}

func (s *Server) handleRunSRT(c *gin.Context) {
	run, ok := s.lookupRun(c)
	if !ok {
		return
	}
	if run.Status != "succeeded" {
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "run has no subtitles"})
		return
	}
	sendSRT(c, run.FileName, run.SRT)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "request failed", "http_internal_error",
		logging.String("operation", op),
		logging.Error(err),
	)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
}

func sendSRT(c *gin.Context, name, body string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, srtContentType+"; charset=utf-8", []byte(body))
}
