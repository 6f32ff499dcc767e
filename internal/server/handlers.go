package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/imaging"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/pipeline"
	"github.com/mellaniegambe/timecard/internal/render"
	"github.com/mellaniegambe/timecard/internal/store"
	"github.com/mellaniegambe/timecard/internal/workspace"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// came from an upstream service.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNoFiles),
		errors.Is(err, workspace.ErrIndexOutOfRange),
		errors.Is(err, workspace.ErrNoResult),
		errors.Is(err, imaging.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrBatchNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoStore),
		errors.Is(err, pipeline.ErrNoExtractor):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func fail(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": data})
}

func (s *Server) batch(c *gin.Context) (*workspace.Batch, bool) {
	b, err := s.batches.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return b, true
}

func fileIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid file index", err)
		return 0, false
	}
	return i, true
}

func readUpload(fh *multipart.FileHeader) (model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Upload{}, err
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return model.Upload{}, err
	}
	return model.Upload{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: body}, nil
}

func (s *Server) createBatch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":  "upload too large",
				"detail": fmt.Sprintf("limit is %d bytes", tooBig.Limit),
			})
			return
		}
		badRequest(c, "invalid multipart form", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		fail(c, workspace.ErrNoFiles)
		return
	}

	uploads := make([]model.Upload, 0, len(files))
	for _, fh := range files {
		up, err := readUpload(fh)
		if err != nil {
			badRequest(c, fmt.Sprintf("read %s", fh.Filename), err)
			return
		}
		uploads = append(uploads, up)
	}

	b, err := s.batches.Create(uploads)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "data": b.Snapshot(true)})
}

func (s *Server) getBatch(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	previews := c.DefaultQuery("previews", "true") != "false"
	ok(c, b.Snapshot(previews))
}

func (s *Server) deleteBatch(c *gin.Context) {
	if err := s.batches.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) extractBatch(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	save := s.opts.AutoSave && s.backend.HasStore()
	if v := c.Query("save"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "invalid save flag", err)
			return
		}
		save = parsed
	}
	if err := b.Extract(c.Request.Context(), s.backend, save); err != nil {
		fail(c, err)
		return
	}
	ok(c, b.Snapshot(false))
}

func (s *Server) removeFile(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	i, valid := fileIndex(c)
	if !valid {
		return
	}
	if err := b.Remove(i); err != nil {
		fail(c, err)
		return
	}
	ok(c, b.Snapshot(false))
}

type viewRequest struct {
	Mode string `json:"mode" binding:"required"`
}

func (s *Server) setViewMode(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	i, valid := fileIndex(c)
	if !valid {
		return
	}
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body", err)
		return
	}
	mode, err := workspace.ParseViewMode(req.Mode)
	if err != nil {
		badRequest(c, "invalid view mode", err)
		return
	}
	if err := b.SetViewMode(i, mode); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"index": i, "view_mode": mode})
}

func (s *Server) renderFile(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	i, valid := fileIndex(c)
	if !valid {
		return
	}
	text, err := b.Render(i)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *Server) saveFile(c *gin.Context) {
	b, found := s.batch(c)
	if !found {
		return
	}
	i, valid := fileIndex(c)
	if !valid {
		return
	}
	rec, err := b.Save(c.Request.Context(), i, s.backend)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "data": rec})
}

func (s *Server) listHistory(c *gin.Context) {
	// Absent uses the default page; 0 or -1 lists everything.
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < pipeline.NoLimit {
			badRequest(c, "invalid limit", err)
			return
		}
		limit = n
		if n == 0 {
			limit = pipeline.NoLimit
		}
	}
	recs, err := s.backend.History(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []model.Record{}
	}
	ok(c, recs)
}

func (s *Server) getHistory(c *gin.Context) {
	rec, err := s.backend.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	view, present := c.GetQuery("view")
	if !present {
		ok(c, rec)
		return
	}
	mode, err := workspace.ParseViewMode(view)
	if err != nil {
		badRequest(c, "invalid view mode", err)
		return
	}
	var text string
	if mode == workspace.ViewJSON {
		text, err = render.RecordJSON(rec)
	} else {
		text, err = render.RecordUI(rec)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}
