package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/server/middleware"
	"github.com/vyrodovalexey/paramgw/internal/store"
	"github.com/vyrodovalexey/paramgw/internal/template"
	"github.com/vyrodovalexey/paramgw/internal/transform"
)

// Ambient context headers.
const (
	HeaderClientID  = middleware.ClientIDHeader
	HeaderService   = "X-Service"
	HeaderOperation = "X-Operation"
	HeaderVersion   = "X-Version"
)

// errorResponse is the body of every failed call.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: kind, Message: message})
}

func (s *Server) handleTransformRequest(c *gin.Context) {
	name := c.Param("name")
	def, ok := s.lookup(c, name)
	if !ok {
		return
	}

	body, ok := s.decodeBody(c)
	if !ok {
		return
	}

	dc := transform.NewDataContext(body)
	dc.ClientID = c.GetHeader(HeaderClientID)
	dc.Service = c.GetHeader(HeaderService)
	if dc.Service == "" {
		dc.Service = name
	}
	dc.Operation = c.GetHeader(HeaderOperation)
	dc.Version = c.GetHeader(HeaderVersion)

	out, err := s.transformer.TransformRequest(c.Request.Context(), dc, def.RequestDocument())
	if err != nil {
		writeTransformError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTransformResponse(c *gin.Context) {
	name := c.Param("name")
	def, ok := s.lookup(c, name)
	if !ok {
		return
	}

	body, ok := s.decodeBody(c)
	if !ok {
		return
	}

	out, err := s.transformer.TransformResponse(c.Request.Context(), body, def.ResponseDocument())
	if err != nil {
		writeTransformError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": s.templates.Names()})
}

func (s *Server) handleRefreshTemplates(c *gin.Context) {
	if err := s.templates.Refresh(c.Request.Context()); err != nil {
		s.logger.WithContext(c.Request.Context()).Error("template refresh failed", observability.Error(err))
		writeError(c, http.StatusServiceUnavailable, "refresh_failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": s.templates.Names()})
}

func (s *Server) lookup(c *gin.Context, name string) (*template.Definition, bool) {
	def, err := s.templates.Lookup(name)
	switch {
	case err == nil:
		return def, true
	case errors.Is(err, store.ErrNotLoaded):
		writeError(c, http.StatusServiceUnavailable, "templates_not_loaded", err.Error())
	case errors.Is(err, store.ErrTemplateNotFound):
		writeError(c, http.StatusNotFound, "template_not_found", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", err.Error())
	}
	return nil, false
}

func (s *Server) decodeBody(c *gin.Context) (*payload.Map, bool) {
	body, err := payload.Decode(c.Request.Body)
	if err == nil {
		return body, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
		return nil, false
	}
	writeError(c, http.StatusBadRequest, "invalid_payload", err.Error())
	return nil, false
}

// writeTransformError maps a resolution failure to a status: template
// faults are server errors, everything else was caused by the payload.
func writeTransformError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if transform.IsTemplateFault(err) {
		status = http.StatusInternalServerError
	}

	resp := errorResponse{Error: string(transform.KindOf(err)), Message: err.Error()}
	var terr *transform.Error
	if errors.As(err, &terr) {
		resp.Field = terr.Field
	}
	if resp.Error == "" {
		resp.Error = "internal"
		status = http.StatusInternalServerError
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
