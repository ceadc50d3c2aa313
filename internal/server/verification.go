package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	verificationdomain "github.com/smallbiznis/profitlens/internal/verification/domain"
	"go.uber.org/zap"
)

type verifyOrderRequest struct {
	State string `json:"state"`
}

// VerifyOrder moves every pending record of an order to the requested
// state. Order ids such as "#1001" must be percent-encoded in the path.
func (s *Server) VerifyOrder(c *gin.Context) {
	var req verifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.verifier.Verify(c.Request.Context(), verificationdomain.VerifyRequest{
		OrderID: c.Param("id"),
		State:   req.State,
	})
	if err != nil {
		if errors.Is(err, verificationdomain.ErrAlreadyFinalized) {
			s.log.Debug("verification skipped, order already final",
				zap.String("order_id", resp.OrderID),
				zap.Int("skipped", resp.Skipped),
			)
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
