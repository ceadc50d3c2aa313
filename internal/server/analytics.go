package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/profitlens/internal/analytics/domain"
)

const defaultReportTitle = "Profitability report"

type setOpsPercentRequest struct {
	Value *float64 `json:"value"`
}

// GetSnapshot returns the live snapshot of the current view. With
// published=true it returns the copy last mirrored to the shared store.
func (s *Server) GetSnapshot(c *gin.Context) {
	if published, _ := strconv.ParseBool(c.Query("published")); published {
		snap, ok := s.analytics.Published(c.Request.Context(), s.sources.View())
		if !ok {
			AbortWithError(c, ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": snap})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.analytics.Snapshot(c.Request.Context())})
}

func (s *Server) GetBusinessMetrics(c *gin.Context) {
	snap := s.analytics.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": snap.Metrics})
}

func (s *Server) ListPeriods(c *gin.Context) {
	granularity, err := analyticsdomain.ParseGranularity(queryOrDefault(c.Query("granularity"), string(analyticsdomain.Daily)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snap := s.analytics.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": snap.Periods(granularity)})
}

func (s *Server) ListProducts(c *gin.Context) {
	snap := s.analytics.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": snap.Products})
}

func (s *Server) ListCities(c *gin.Context) {
	snap := s.analytics.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": snap.Cities})
}

func (s *Server) ListCouriers(c *gin.Context) {
	snap := s.analytics.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": snap.Couriers})
}

func (s *Server) SetOpsPercent(c *gin.Context) {
	var req setOpsPercentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.analytics.SetOpsPercent(*req.Value); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"opsPercent": s.analytics.OpsPercent()}})
}

func (s *Server) RenderReport(c *gin.Context) {
	if s.reports == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	title := queryOrDefault(c.Query("title"), defaultReportTitle)
	doc, err := s.reports.Generate(c.Request.Context(), strings.TrimSpace(title))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
