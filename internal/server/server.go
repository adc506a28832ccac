// Package server exposes schema inference over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"xtd/internal/db"
	"xtd/internal/emit"
	"xtd/internal/infer"
	"xtd/internal/logger"
	"xtd/internal/schema"
	"xtd/internal/xmltree"
	"xtd/pkg/config"
)

// maxDocument bounds the size of one uploaded XML document.
const maxDocument = 32 << 20

type handler struct {
	defaults config.InferenceConfig
}

// NewRouter builds the gin engine serving the inference API. defaults seeds
// the options of every request; query parameters override them.
func NewRouter(defaults config.InferenceConfig) *gin.Engine {
	h := &handler{defaults: defaults}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.POST("/infer", h.infer)
		api.POST("/validate", h.validate)
		api.GET("/dialects", h.dialects)
	}
	return router
}

// New creates the HTTP server listening on port. Gin runs in release mode
// unless debug logging is enabled.
func New(port int, defaults config.InferenceConfig) *http.Server {
	if logger.DebugEnabled() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(defaults),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithField("status", c.Writer.Status()).
			WithField("elapsed", time.Since(start).String()).
			Infof("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}

// options overlays the query flags a, b, g and etc on the server defaults.
func (h *handler) options(c *gin.Context) (config.InferenceConfig, error) {
	cfg := h.defaults
	cfg.IsValid = ""
	for name, dst := range map[string]*bool{"a": &cfg.NoAttributes, "b": &cfg.NoDisambiguation, "g": &cfg.Relations} {
		if v, ok := c.GetQuery(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, fmt.Errorf("query %s: %w", name, err)
			}
			*dst = b
		}
	}
	if v, ok := c.GetQuery("etc"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("query etc: %w", err)
		}
		cfg.Etc = &n
	}
	// the response format is chosen per request, JSON unless asked otherwise
	cfg.Format = c.DefaultQuery("format", "json")
	if v, ok := c.GetQuery("dialect"); ok {
		cfg.Dialect = v
	}
	return cfg, cfg.Validate()
}

// statusFor maps pipeline failures onto HTTP status codes.
func statusFor(err error) int {
	var (
		parseErr     *xmltree.ParseError
		collision    *schema.NamingCollisionError
		conflict     *schema.RelationConflictError
		incompatible *schema.SchemaValidationError
	)
	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &collision), errors.As(err, &conflict):
		return http.StatusUnprocessableEntity
	case errors.As(err, &incompatible):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// infer handles POST /api/infer. The body is the XML document. The schema is
// returned as JSON, or as DDL text with format=ddl.
func (h *handler) infer(c *gin.Context) {
	cfg, err := h.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "invalid options")
		return
	}
	res, err := infer.Run(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocument), infer.OptionsFrom(cfg))
	if err != nil {
		fail(c, statusFor(err), err, "inference failed")
		return
	}
	s := res.Schema()

	if cfg.Format != "ddl" {
		success(c, http.StatusOK, s, fmt.Sprintf("inferred %d tables", len(s.Tables)))
		return
	}
	var buf bytes.Buffer
	switch {
	case cfg.Relations:
		err = emit.Relations(&buf, s, cfg.Header)
	case cfg.Dialect != "":
		err = emit.DialectDDL(&buf, s, cfg.Dialect, cfg.Header)
	default:
		err = emit.DDL(&buf, s, cfg.Header)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "render failed")
		return
	}
	contentType := "text/plain; charset=utf-8"
	if cfg.Relations {
		contentType = "application/xml; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func parsePart(form *multipart.Form, name string) (*xmltree.Node, error) {
	files := form.File[name]
	if len(files) == 0 {
		return nil, fmt.Errorf("missing form file %q", name)
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return xmltree.Parse(io.LimitReader(f, maxDocument))
}

// validate handles POST /api/validate with the multipart files "reference"
// and "candidate".
func (h *handler) validate(c *gin.Context) {
	cfg, err := h.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "invalid options")
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, err, "multipart form expected")
		return
	}
	reference, err := parsePart(form, "reference")
	if err != nil {
		fail(c, http.StatusBadRequest, err, "invalid reference document")
		return
	}
	candidate, err := parsePart(form, "candidate")
	if err != nil {
		fail(c, http.StatusBadRequest, err, "invalid candidate document")
		return
	}
	if err := infer.Check(reference, candidate, infer.OptionsFrom(cfg)); err != nil {
		fail(c, statusFor(err), err, "candidate does not fit the reference schema")
		return
	}
	success(c, http.StatusOK, gin.H{"valid": true}, "candidate fits the reference schema")
}

// dialects handles GET /api/dialects.
func (h *handler) dialects(c *gin.Context) {
	success(c, http.StatusOK, gin.H{
		"ddl":        emit.Dialects(),
		"extractors": db.RegisteredDialects(),
	}, "")
}
