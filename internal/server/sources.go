package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
)

type connectSourceRequest struct {
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Currency string         `json:"currency"`
	Config   map[string]any `json:"config"`
}

type setViewRequest struct {
	View string `json:"view"`
}

func (s *Server) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.sources.List()})
}

func (s *Server) ConnectSource(c *gin.Context) {
	var req connectSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sources.Connect(c.Request.Context(), sourcedomain.ConnectRequest{
		Type:     sourcedomain.Type(strings.TrimSpace(req.Type)),
		Name:     strings.TrimSpace(req.Name),
		Currency: strings.TrimSpace(req.Currency),
		Config:   req.Config,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisconnectSource(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.sources.Disconnect(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ReplaceRecords(c *gin.Context) {
	records, ok := bindRecords(c)
	if !ok {
		return
	}

	resp, err := s.sources.ReplaceRecords(c.Request.Context(), strings.TrimSpace(c.Param("id")), records)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AppendRecords(c *gin.Context) {
	records, ok := bindRecords(c)
	if !ok {
		return
	}

	resp, err := s.sources.AppendRecords(c.Request.Context(), strings.TrimSpace(c.Param("id")), records)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SyncSource(c *gin.Context) {
	resp, err := s.syncer.SyncNow(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LinkSource(c *gin.Context) {
	resp, err := s.sources.Link(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("adId")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnlinkSource(c *gin.Context) {
	resp, err := s.sources.Unlink(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("adId")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetView(c *gin.Context) {
	var req setViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.sources.SetView(c.Request.Context(), strings.TrimSpace(req.View)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"view": s.sources.View()}})
}

func (s *Server) ListActiveRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": s.sources.ActiveRecords(),
		"view": s.sources.View(),
	})
}

// bindRecords decodes a JSON array of objects. Field order of each object
// is kept.
func bindRecords(c *gin.Context) ([]record.Record, bool) {
	var records []record.Record
	if err := c.ShouldBindJSON(&records); err != nil {
		AbortWithError(c, newValidationError("records", "invalid_records", "expected a JSON array of objects"))
		return nil, false
	}
	return records, true
}
