package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
)

type createLedgerEntryRequest struct {
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"paymentStatus"`
}

type createAdSpendRequest struct {
	Date           string  `json:"date"`
	Platform       string  `json:"platform"`
	Amount         float64 `json:"amount"`
	TargetSourceID string  `json:"targetSourceId"`
	Notes          string  `json:"notes"`
}

func (s *Server) ListLedgerEntries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.ledger.ListEntries()})
}

func (s *Server) CreateLedgerEntry(c *gin.Context) {
	var req createLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledger.AddEntry(c.Request.Context(), ledgerdomain.CreateEntryRequest{
		Date:          strings.TrimSpace(req.Date),
		Category:      strings.TrimSpace(req.Category),
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount,
		PaymentStatus: strings.TrimSpace(req.PaymentStatus),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteLedgerEntry(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.ledger.DeleteEntry(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListAdSpend returns the manual entries followed by the platform spend
// derived from the current view. Derived entries carry source "auto" and
// cannot be deleted.
func (s *Server) ListAdSpend(c *gin.Context) {
	manual := s.ledger.ListAdSpend()
	auto := s.analytics.Snapshot(c.Request.Context()).AutoAdSpend

	entries := make([]ledgerdomain.AdSpendEntry, 0, len(manual)+len(auto))
	entries = append(entries, manual...)
	entries = append(entries, auto...)

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) CreateAdSpend(c *gin.Context) {
	var req createAdSpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledger.AddAdSpend(c.Request.Context(), ledgerdomain.CreateAdSpendRequest{
		Date:           strings.TrimSpace(req.Date),
		Platform:       strings.TrimSpace(req.Platform),
		Amount:         req.Amount,
		TargetSourceID: strings.TrimSpace(req.TargetSourceID),
		Notes:          strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAdSpend(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.ledger.DeleteAdSpend(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
