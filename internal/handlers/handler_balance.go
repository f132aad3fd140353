package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvc
	exportService  portssvc.LedgerExportSvc
}

func newBalanceHandler(bs portssvc.BalanceSvc, es portssvc.LedgerExportSvc) *balanceHandler {
	return &balanceHandler{balanceService: bs, exportService: es}
}

// registerBalanceRoutes registers balance and export routes under a /groups/:groupID group.
func registerBalanceRoutes(group *gin.RouterGroup, balanceService portssvc.BalanceSvc, exportService portssvc.LedgerExportSvc) {
	h := newBalanceHandler(balanceService, exportService)

	group.GET("/balances", h.getBalances)
	group.GET("/balances/statement", h.exportStatement)
	group.GET("/ledger/export", h.exportLedger)
}

// getBalances godoc
// @Summary Group balances
// @Description Computes net debts between members in the group's base currency, plus suggested transfers
// @Tags balances
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupBalancesResponse
// @Failure 403 {object} errorResponse "Not a member"
// @Failure 503 {object} errorResponse "A required exchange rate is missing"
// @Security BearerAuth
// @Router /groups/{groupID}/balances [get]
func (h *balanceHandler) getBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")

	snapshot, err := h.balanceService.ComputeBalances(c.Request.Context(), groupID, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("group_id", groupID)), err, "Failed to compute balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupBalancesResponse(snapshot))
}

// exportLedger godoc
// @Summary Export the ledger
// @Description Downloads the group's expenses, line items and balances as an XLSX workbook
// @Tags balances
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   groupID path string true "Group ID"
// @Success 200 {file} file
// @Failure 403 {object} errorResponse "Not a member"
// @Security BearerAuth
// @Router /groups/{groupID}/ledger/export [get]
func (h *balanceHandler) exportLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	logger = logger.With(slog.String("group_id", groupID))

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.exportService.ExportLedger(c.Request.Context(), groupID, userID, &buf); err != nil {
		respondWithError(c, logger, err, "Failed to export ledger")
		return
	}

	filename := fmt.Sprintf("ledger-%s-%s.xlsx", groupID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	logger.Info("Ledger exported", slog.Int("bytes", buf.Len()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// exportStatement godoc
// @Summary Balance statement
// @Description Downloads the group's balances and suggested transfers as a PDF
// @Tags balances
// @Produce application/pdf
// @Param   groupID path string true "Group ID"
// @Success 200 {file} file
// @Failure 403 {object} errorResponse "Not a member"
// @Failure 503 {object} errorResponse "A required exchange rate is missing"
// @Security BearerAuth
// @Router /groups/{groupID}/balances/statement [get]
func (h *balanceHandler) exportStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	logger = logger.With(slog.String("group_id", groupID))

	var buf bytes.Buffer
	if err := h.exportService.ExportBalanceStatement(c.Request.Context(), groupID, userID, &buf); err != nil {
		respondWithError(c, logger, err, "Failed to export balance statement")
		return
	}

	filename := fmt.Sprintf("balances-%s-%s.pdf", groupID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, pdfContentType, buf.Bytes())
}
