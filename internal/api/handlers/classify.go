package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-ta-go/internal/loader"
	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ClassifyHandler detects OHLCV columns in uploaded tables.
type ClassifyHandler struct {
	svc      *services.AnalysisService
	maxBytes int64
}

// ClassifyCSVResponse adds the parsed shape and, on request, the
// canonicalised table to a classification.
type ClassifyCSVResponse struct {
	*models.ClassifyResponse
	Rows    int          `json:"rows"`
	Columns []string     `json:"column_names"`
	Table   *table.Table `json:"table,omitempty"`
}

func NewClassifyHandler(svc *services.AnalysisService, maxBytes int64) *ClassifyHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ClassifyHandler{svc: svc, maxBytes: maxBytes}
}

// Classify maps the columns of a JSON table. has_header defaults to true.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request Entity Too Large", Message: err.Error()})
			return
		}
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	hasHeader := true
	if req.HasHeader != nil {
		hasHeader = *req.HasHeader
	}

	resp, err := h.svc.Classify(c.Request.Context(), req.Table, hasHeader)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClassifyCSV accepts a multipart "file" field. Form fields has_header
// (default true) and delimiter (default ",") tune parsing, and
// ?include_table=true returns the canonicalised table.
func (h *ClassifyHandler) ClassifyCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request Entity Too Large", Message: err.Error()})
			return
		}
		badRequest(c, "A CSV upload in the \"file\" field is required")
		return
	}

	opts := loader.DefaultOptions()
	if v := c.PostForm("has_header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "has_header must be a boolean")
			return
		}
		opts.HasHeader = b
	}
	if d := c.PostForm("delimiter"); d != "" {
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) || r == utf8.RuneError {
			badRequest(c, "delimiter must be a single character")
			return
		}
		opts.Delimiter = r
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() { _ = f.Close() }()

	resp, t, err := h.svc.ClassifyCSV(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	out := ClassifyCSVResponse{ClassifyResponse: resp, Rows: t.Height(), Columns: t.Names()}
	if c.Query("include_table") == "true" {
		out.Table = t
	}
	c.JSON(http.StatusOK, out)
}
