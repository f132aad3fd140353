package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type settlementHandler struct {
	settlementService portssvc.SettlementSvc
}

func newSettlementHandler(ss portssvc.SettlementSvc) *settlementHandler {
	return &settlementHandler{settlementService: ss}
}

// registerSettlementRoutes registers line item settlement routes under a /groups/:groupID group.
func registerSettlementRoutes(group *gin.RouterGroup, settlementService portssvc.SettlementSvc) {
	h := newSettlementHandler(settlementService)

	lineItems := group.Group("/line-items/:lineItemID")
	{
		lineItems.POST("/settle", h.settleLineItem)
		lineItems.POST("/payments", h.recordPayment)
	}
}

// settleLineItem godoc
// @Summary Settle a line item
// @Description Marks a line item as fully paid. expectedVersion must match the version last read.
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   lineItemID path string true "Line item ID"
// @Param   settlement body dto.SettleLineItemRequest true "Settlement details"
// @Success 200 {object} dto.LineItemResponse
// @Failure 403 {object} errorResponse "Only the debtor or the payer may settle"
// @Failure 409 {object} errorResponse "Version conflict or already settled"
// @Security BearerAuth
// @Router /groups/{groupID}/line-items/{lineItemID}/settle [post]
func (h *settlementHandler) settleLineItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SettleLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	lineItemID := c.Param("lineItemID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("line_item_id", lineItemID))

	item, err := h.settlementService.Settle(c.Request.Context(), groupID, lineItemID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to settle line item")
		return
	}

	logger.Info("Line item settled", slog.Int64("version", item.Version))
	c.JSON(http.StatusOK, dto.ToLineItemResponse(item))
}

// recordPayment godoc
// @Summary Record a partial payment
// @Description Adds a payment to a line item. The item settles once the payments reach its amount.
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   lineItemID path string true "Line item ID"
// @Param   payment body dto.RecordPaymentRequest true "Payment details"
// @Success 200 {object} dto.LineItemResponse
// @Failure 400 {object} errorResponse "Payment exceeds the outstanding amount"
// @Failure 409 {object} errorResponse "Version conflict or already settled"
// @Security BearerAuth
// @Router /groups/{groupID}/line-items/{lineItemID}/payments [post]
func (h *settlementHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	lineItemID := c.Param("lineItemID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("line_item_id", lineItemID))

	item, err := h.settlementService.RecordPayment(c.Request.Context(), groupID, lineItemID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record payment")
		return
	}

	logger.Info("Payment recorded", slog.String("paid", item.PaidAmount.String()), slog.Bool("settled", item.IsSettled))
	c.JSON(http.StatusOK, dto.ToLineItemResponse(item))
}
