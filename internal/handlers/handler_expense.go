package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// expenseHandler handles the expense ledger of a group.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

// registerExpenseRoutes registers expense routes under a /groups/:groupID group.
func registerExpenseRoutes(group *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	expenses := group.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listExpenses)
		expenses.GET("/:expenseID", h.getExpense)
		expenses.POST("/:expenseID/invalidate", h.invalidateExpense)
	}
}

// createExpense godoc
// @Summary Record an expense
// @Description Splits an expense among participants and stores it with one line item per participant
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 403 {object} errorResponse "Not a member"
// @Failure 422 {object} errorResponse "Invalid split or participant"
// @Security BearerAuth
// @Router /groups/{groupID}/expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	logger = logger.With(slog.String("group_id", groupID))

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), groupID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create expense")
		return
	}

	logger.Info("Expense created", slog.String("expense_id", expense.ExpenseID), slog.Int("line_items", len(expense.LineItems)))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listExpenses godoc
// @Summary Ledger history
// @Description Pages through a group's expenses newest first, with line items and settlement records
// @Tags expenses
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   limit query int false "Page size" minimum(1) maximum(100)
// @Param   nextToken query string false "Token from the previous page"
// @Param   includeInvalid query bool false "Include invalidated expenses"
// @Success 200 {object} dto.LedgerHistoryResponse
// @Failure 400 {object} errorResponse "Invalid query"
// @Failure 403 {object} errorResponse "Not a member"
// @Security BearerAuth
// @Router /groups/{groupID}/expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")

	page, err := h.expenseService.GetLedgerHistory(c.Request.Context(), groupID, userID, params)
	if err != nil {
		respondWithError(c, logger.With(slog.String("group_id", groupID)), err, "Failed to list expenses")
		return
	}
	c.JSON(http.StatusOK, page)
}

// getExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} errorResponse "Expense not found"
// @Security BearerAuth
// @Router /groups/{groupID}/expenses/{expenseID} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	expenseID := c.Param("expenseID")

	expense, err := h.expenseService.GetExpense(c.Request.Context(), groupID, expenseID, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("expense_id", expenseID)), err, "Failed to get expense")
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// invalidateExpense godoc
// @Summary Invalidate an expense
// @Description Marks an expense invalid so it stops counting towards balances. Only the payer or creator may do this.
// @Tags expenses
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} errorResponse "Not allowed"
// @Failure 409 {object} errorResponse "Already invalid or partly settled"
// @Security BearerAuth
// @Router /groups/{groupID}/expenses/{expenseID}/invalidate [post]
func (h *expenseHandler) invalidateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	groupID := c.Param("groupID")
	expenseID := c.Param("expenseID")
	logger = logger.With(slog.String("group_id", groupID), slog.String("expense_id", expenseID))

	expense, err := h.expenseService.InvalidateExpense(c.Request.Context(), groupID, expenseID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to invalidate expense")
		return
	}

	logger.Info("Expense invalidated")
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}
