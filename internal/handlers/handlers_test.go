package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/handlers"
	"github.com/SscSPs/splitledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock GroupService ---
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) GetGroup(ctx context.Context, groupID, requestingUserID string) (*domain.Group, error) {
	args := m.Called(ctx, groupID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}
func (m *MockGroupService) ListMembers(ctx context.Context, groupID, requestingUserID string) ([]domain.GroupMember, error) {
	args := m.Called(ctx, groupID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupMember), args.Error(1)
}
func (m *MockGroupService) CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorUserID string) (*domain.Group, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}
func (m *MockGroupService) AddMember(ctx context.Context, groupID string, req dto.AddMemberRequest, requestingUserID string) (*domain.GroupMember, error) {
	args := m.Called(ctx, groupID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupMember), args.Error(1)
}
func (m *MockGroupService) RemoveMember(ctx context.Context, groupID, targetUserID, requestingUserID string) (*domain.GroupMember, error) {
	args := m.Called(ctx, groupID, targetUserID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupMember), args.Error(1)
}
func (m *MockGroupService) AuthorizeMember(ctx context.Context, userID, groupID string, requiredRole domain.MemberRole) error {
	args := m.Called(ctx, userID, groupID, requiredRole)
	return args.Error(0)
}
func (m *MockGroupService) GetCurrentMembers(ctx context.Context, groupID string) (map[string]struct{}, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

var _ portssvc.GroupSvcFacade = (*MockGroupService)(nil)

// --- Mock ExpenseService ---
type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) GetExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, groupID, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) GetLedgerHistory(ctx context.Context, groupID, requestingUserID string, params dto.ListExpensesParams) (*dto.LedgerHistoryResponse, error) {
	args := m.Called(ctx, groupID, requestingUserID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LedgerHistoryResponse), args.Error(1)
}
func (m *MockExpenseService) CreateExpense(ctx context.Context, groupID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, groupID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) InvalidateExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, groupID, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

var _ portssvc.ExpenseSvcFacade = (*MockExpenseService)(nil)

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Settle(ctx context.Context, groupID, lineItemID string, req dto.SettleLineItemRequest, actorID string) (*domain.SplitLineItem, error) {
	args := m.Called(ctx, groupID, lineItemID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SplitLineItem), args.Error(1)
}
func (m *MockSettlementService) RecordPayment(ctx context.Context, groupID, lineItemID string, req dto.RecordPaymentRequest, actorID string) (*domain.SplitLineItem, error) {
	args := m.Called(ctx, groupID, lineItemID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SplitLineItem), args.Error(1)
}

var _ portssvc.SettlementSvc = (*MockSettlementService)(nil)

// --- Mock BalanceService / ExportService / Reconciler ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) ComputeBalances(ctx context.Context, groupID, requestingUserID string) (*domain.GroupBalanceSnapshot, error) {
	args := m.Called(ctx, groupID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupBalanceSnapshot), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportLedger(ctx context.Context, groupID, requestingUserID string, w io.Writer) error {
	args := m.Called(ctx, groupID, requestingUserID, w)
	return args.Error(0)
}

func (m *MockExportService) ExportBalanceStatement(ctx context.Context, groupID, requestingUserID string, w io.Writer) error {
	args := m.Called(ctx, groupID, requestingUserID, w)
	return args.Error(0)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) OnMemberRemoved(ctx context.Context, groupID, memberID string) error {
	args := m.Called(ctx, groupID, memberID)
	return args.Error(0)
}

var (
	_ portssvc.BalanceSvc      = (*MockBalanceService)(nil)
	_ portssvc.LedgerExportSvc = (*MockExportService)(nil)
	_ portssvc.ReconcilerSvc   = (*MockReconciler)(nil)
)

// --- Mock ExchangeRateService ---
type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) GetExchangeRate(ctx context.Context, fromCode, toCode string, asOf *time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCode, toCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}
func (m *MockExchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}
func (m *MockExchangeRateService) GetRate(ctx context.Context, fromCurrency, toCurrency string, asOf *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, fromCurrency, toCurrency, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ portssvc.ExchangeRateSvcFacade = (*MockExchangeRateService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router     *gin.Engine
	jwtSecret  string
	groups     *MockGroupService
	expenses   *MockExpenseService
	settlement *MockSettlementService
	balances   *MockBalanceService
	export     *MockExportService
	reconciler *MockReconciler
	rates      *MockExchangeRateService
	userID     string
	groupID    string
}

func (suite *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "splitledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()
	suite.groupID = uuid.NewString()

	suite.groups = new(MockGroupService)
	suite.expenses = new(MockExpenseService)
	suite.settlement = new(MockSettlementService)
	suite.balances = new(MockBalanceService)
	suite.export = new(MockExportService)
	suite.reconciler = new(MockReconciler)
	suite.rates = new(MockExchangeRateService)

	cfg := &config.Config{
		JWTSecret:    suite.jwtSecret,
		JWTIssuer:    "splitledger-test",
		RateLimit:    "1000-M",
		IsProduction: true,
	}
	container := &portssvc.ServiceContainer{
		ExchangeRate: suite.rates,
		Group:        suite.groups,
		Expense:      suite.expenses,
		Settlement:   suite.settlement,
		Balance:      suite.balances,
		Export:       suite.export,
		Reconciler:   suite.reconciler,
	}
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, cfg, container))
}

func (suite *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func (suite *HandlerTestSuite) groupPath(suffix string) string {
	return fmt.Sprintf("/api/v1/groups/%s%s", suite.groupID, suffix)
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestMissingTokenIsUnauthorized() {
	req, _ := http.NewRequest(http.MethodGet, suite.groupPath("/balances"), nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.balances.AssertNotCalled(suite.T(), "ComputeBalances", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestHealthIsPublic() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestCreateExpense_Success() {
	expense := &domain.Expense{
		ExpenseID:    uuid.NewString(),
		GroupID:      suite.groupID,
		PayerID:      "alice",
		Amount:       decimal.RequireFromString("30.00"),
		CurrencyCode: "USD",
		SplitType:    domain.SplitEqual,
		LineItems: []domain.SplitLineItem{
			{LineItemID: "li-1", DebtorID: "alice", Amount: decimal.RequireFromString("10.00"), Version: 1},
			{LineItemID: "li-2", DebtorID: "bob", Amount: decimal.RequireFromString("10.00"), Version: 1},
			{LineItemID: "li-3", DebtorID: "carol", Amount: decimal.RequireFromString("10.00"), Version: 1},
		},
	}
	suite.expenses.On("CreateExpense", mock.Anything, suite.groupID,
		mock.MatchedBy(func(r dto.CreateExpenseRequest) bool {
			return r.PayerID == "alice" && r.Amount.Equal(decimal.NewFromInt(30)) && len(r.Participants) == 3
		}),
		suite.userID,
	).Return(expense, nil).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/expenses"), map[string]any{
		"payerID":      "alice",
		"description":  "Dinner",
		"amount":       "30.00",
		"currencyCode": "USD",
		"splitType":    "EQUAL",
		"participants": []string{"alice", "bob", "carol"},
	})

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.ExpenseResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expense.ExpenseID, resp.ExpenseID)
	suite.Len(resp.LineItems, 3)
	suite.expenses.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateExpense_RejectsSubCentAmount() {
	w := suite.do(http.MethodPost, suite.groupPath("/expenses"), map[string]any{
		"payerID":      "alice",
		"description":  "Dinner",
		"amount":       "30.005",
		"currencyCode": "USD",
		"splitType":    "EQUAL",
		"participants": []string{"alice", "bob"},
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.expenses.AssertNotCalled(suite.T(), "CreateExpense", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateExpense_InvalidSplitIsUnprocessable() {
	suite.expenses.On("CreateExpense", mock.Anything, suite.groupID, mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: percentages sum to 90", apperrors.ErrInvalidSplit)).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/expenses"), map[string]any{
		"payerID":      "alice",
		"description":  "Hotel",
		"amount":       "100",
		"currencyCode": "EUR",
		"splitType":    "PERCENTAGE",
		"percentages":  map[string]string{"alice": "50", "bob": "40"},
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("invalid_split", suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestSettle_VersionConflict() {
	suite.settlement.On("Settle", mock.Anything, suite.groupID, "li-1",
		dto.SettleLineItemRequest{ExpectedVersion: 1, Method: domain.MethodCash},
		suite.userID,
	).Return(nil, fmt.Errorf("%w: line item li-1", apperrors.ErrVersionConflict)).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/line-items/li-1/settle"), map[string]any{
		"expectedVersion": 1,
		"method":          "cash",
	})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("version_conflict", suite.errorCode(w))
	suite.settlement.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestSettle_RejectsReservedMethod() {
	w := suite.do(http.MethodPost, suite.groupPath("/line-items/li-1/settle"), map[string]any{
		"expectedVersion": 1,
		"method":          "member_removed",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.settlement.AssertNotCalled(suite.T(), "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestRecordPayment_Success() {
	paid := decimal.RequireFromString("4.00")
	suite.settlement.On("RecordPayment", mock.Anything, suite.groupID, "li-2",
		mock.MatchedBy(func(r dto.RecordPaymentRequest) bool { return r.Amount.Equal(paid) && r.ExpectedVersion == 1 }),
		suite.userID,
	).Return(&domain.SplitLineItem{
		LineItemID: "li-2",
		DebtorID:   "bob",
		Amount:     decimal.RequireFromString("10.00"),
		PaidAmount: paid,
		Version:    2,
	}, nil).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/line-items/li-2/payments"), map[string]any{
		"expectedVersion": 1,
		"amount":          "4.00",
		"method":          "bank_transfer",
	})

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.LineItemResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("6", resp.Outstanding.String())
	suite.Equal(int64(2), resp.Version)
}

func (suite *HandlerTestSuite) TestBalances_MissingRateIsUnavailable() {
	suite.balances.On("ComputeBalances", mock.Anything, suite.groupID, suite.userID).
		Return(nil, fmt.Errorf("%w: no rate for XYZ", apperrors.ErrUnknownCurrency)).Once()

	w := suite.do(http.MethodGet, suite.groupPath("/balances"), nil)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal("unknown_currency", suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestBalances_Success() {
	suite.balances.On("ComputeBalances", mock.Anything, suite.groupID, suite.userID).
		Return(&domain.GroupBalanceSnapshot{
			GroupID:          suite.groupID,
			BaseCurrencyCode: "USD",
			NetDebts: []domain.NetDebt{
				{FromMemberID: "bob", ToMemberID: "alice", Amount: decimal.RequireFromString("15.00")},
			},
		}, nil).Once()

	w := suite.do(http.MethodGet, suite.groupPath("/balances"), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.GroupBalancesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.NetDebts, 1)
	suite.Equal("bob", resp.NetDebts[0].From)
	suite.Equal("15", resp.NetDebts[0].Amount.String())
}

func (suite *HandlerTestSuite) TestRemoveMember_Accepted() {
	removedAt := time.Now()
	suite.groups.On("RemoveMember", mock.Anything, suite.groupID, "bob", suite.userID).
		Return(&domain.GroupMember{
			GroupID:             suite.groupID,
			UserID:              "bob",
			Role:                domain.RoleRemoved,
			ReconciliationState: domain.ReconciliationPending,
			RemovedAt:           &removedAt,
		}, nil).Once()

	w := suite.do(http.MethodDelete, suite.groupPath("/members/bob"), nil)

	suite.Equal(http.StatusAccepted, w.Code)
	var resp dto.MemberResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.ReconciliationPending, resp.ReconciliationState)
}

func (suite *HandlerTestSuite) TestReconcile_RequiresAdmin() {
	suite.groups.On("AuthorizeMember", mock.Anything, suite.userID, suite.groupID, domain.RoleAdmin).
		Return(fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/members/bob/reconcile"), nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.reconciler.AssertNotCalled(suite.T(), "OnMemberRemoved", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestReconcile_ReturnsResolvedMember() {
	suite.groups.On("AuthorizeMember", mock.Anything, suite.userID, suite.groupID, domain.RoleAdmin).Return(nil).Once()
	suite.reconciler.On("OnMemberRemoved", mock.Anything, suite.groupID, "bob").Return(nil).Once()
	suite.groups.On("ListMembers", mock.Anything, suite.groupID, suite.userID).Return([]domain.GroupMember{
		{GroupID: suite.groupID, UserID: suite.userID, Role: domain.RoleAdmin, ReconciliationState: domain.ReconciliationActive},
		{GroupID: suite.groupID, UserID: "bob", Role: domain.RoleRemoved, ReconciliationState: domain.ReconciliationDone},
	}, nil).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/members/bob/reconcile"), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.MemberResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("bob", resp.UserID)
	suite.Equal(domain.ReconciliationDone, resp.ReconciliationState)
	suite.reconciler.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestExportLedger_WritesWorkbook() {
	payload := []byte("PK\x03\x04workbook")
	suite.export.On("ExportLedger", mock.Anything, suite.groupID, suite.userID, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = args.Get(3).(io.Writer).Write(payload)
		}).Return(nil).Once()

	w := suite.do(http.MethodGet, suite.groupPath("/ledger/export"), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "attachment;")
	suite.Equal(payload, w.Body.Bytes())
}

func (suite *HandlerTestSuite) TestBalanceStatement_ForbiddenForOutsider() {
	suite.export.On("ExportBalanceStatement", mock.Anything, suite.groupID, suite.userID, mock.Anything).
		Return(fmt.Errorf("%w: not a member", apperrors.ErrForbidden)).Once()

	w := suite.do(http.MethodGet, suite.groupPath("/balances/statement"), nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.Empty(w.Header().Get("Content-Disposition"))
}

func (suite *HandlerTestSuite) TestInvalidateExpense_AlreadyInvalidIsConflict() {
	suite.expenses.On("InvalidateExpense", mock.Anything, suite.groupID, "e-1", suite.userID).
		Return(nil, fmt.Errorf("%w: expense e-1 is already invalid", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, suite.groupPath("/expenses/e-1/invalidate"), nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("conflict", suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestListExpenses_PassesQuery() {
	suite.expenses.On("GetLedgerHistory", mock.Anything, suite.groupID, suite.userID,
		mock.MatchedBy(func(p dto.ListExpensesParams) bool { return p.Limit == 5 && p.IncludeInvalid }),
	).Return(&dto.LedgerHistoryResponse{Expenses: []dto.ExpenseResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, suite.groupPath("/expenses?limit=5&includeInvalid=true"), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.expenses.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetExchangeRate_AsOf() {
	asOf := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.rates.On("GetExchangeRate", mock.Anything, "EUR", "USD",
		mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(asOf) }),
	).Return(&domain.ExchangeRate{
		ExchangeRateID:   "r-1",
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.08"),
		DateEffective:    asOf.Add(-24 * time.Hour),
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/EUR/USD?asOf=2024-03-01T12:00:00Z", nil)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.ExchangeRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("1.08", resp.Rate.String())
	suite.rates.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
