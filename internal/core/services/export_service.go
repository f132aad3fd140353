package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetExpenses  = "Expenses"
	sheetLineItems = "Line Items"
	sheetBalances  = "Balances"

	exportPageSize = 100
)

type exportService struct {
	BaseService
	expenseRepo portsrepo.ExpenseReader
	balances    portssvc.BalanceSvc
}

// NewLedgerExportService creates the ledger exporter.
func NewLedgerExportService(expenseRepo portsrepo.ExpenseReader, balances portssvc.BalanceSvc, authorizer portssvc.GroupAuthorizerSvc) portssvc.LedgerExportSvc {
	return &exportService{
		BaseService: BaseService{GroupAuthorizer: authorizer},
		expenseRepo: expenseRepo,
		balances:    balances,
	}
}

// ExportLedger writes every expense of the group, invalidated ones included,
// plus the current balances to w as an XLSX workbook.
func (s *exportService) ExportLedger(ctx context.Context, groupID, requestingUserID string, w io.Writer) error {
	if err := s.AuthorizeUser(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return err
	}

	snapshot, err := s.balances.ComputeBalances(ctx, groupID, requestingUserID)
	if err != nil {
		return err
	}

	var expenses []domain.Expense
	var token *string
	for {
		page, next, err := s.expenseRepo.ListExpensesByGroup(ctx, groupID, true, exportPageSize, token)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		expenses = append(expenses, page...)
		if next == nil {
			break
		}
		token = next
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetExpenses); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetLineItems); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetBalances); err != nil {
		return err
	}

	if err := writeExpenseRows(f, expenses); err != nil {
		return err
	}
	if err := writeLineItemRows(f, expenses); err != nil {
		return err
	}
	if err := writeBalanceRows(f, snapshot); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.LogInfo(ctx, "Ledger exported", slog.String("group_id", groupID), slog.Int("expenses", len(expenses)))
	return nil
}

func writeExpenseRows(f *excelize.File, expenses []domain.Expense) error {
	rows := [][]any{{"Expense ID", "Created At", "Payer", "Description", "Category", "Split", "Amount", "Currency", "Invalid"}}
	for _, e := range expenses {
		rows = append(rows, []any{
			e.ExpenseID,
			e.CreatedAt.Format(time.RFC3339),
			e.PayerID,
			e.Description,
			string(e.Category),
			string(e.SplitType),
			e.Amount.InexactFloat64(),
			e.CurrencyCode,
			e.IsInvalid,
		})
	}
	return setRows(f, sheetExpenses, rows)
}

func writeLineItemRows(f *excelize.File, expenses []domain.Expense) error {
	rows := [][]any{{"Line Item ID", "Expense ID", "Debtor", "Amount", "Paid", "Outstanding", "Currency", "Settled", "Method", "Version"}}
	for _, e := range expenses {
		for _, li := range e.LineItems {
			method := ""
			if li.SettlementMethod != nil {
				method = string(*li.SettlementMethod)
			}
			rows = append(rows, []any{
				li.LineItemID,
				e.ExpenseID,
				li.DebtorID,
				li.Amount.InexactFloat64(),
				li.PaidAmount.InexactFloat64(),
				li.Outstanding().InexactFloat64(),
				e.CurrencyCode,
				li.IsSettled,
				method,
				li.Version,
			})
		}
	}
	return setRows(f, sheetLineItems, rows)
}

func writeBalanceRows(f *excelize.File, snapshot *domain.GroupBalanceSnapshot) error {
	rows := [][]any{{"Member", "Owed To Member", "Member Owes", "Net", "Lifetime Share", "Lifetime Paid", "Currency"}}
	for _, m := range snapshot.Members {
		rows = append(rows, []any{
			m.MemberID,
			m.OwedToMember.InexactFloat64(),
			m.MemberOwes.InexactFloat64(),
			m.Net.InexactFloat64(),
			m.LifetimeShare.InexactFloat64(),
			m.LifetimePaid.InexactFloat64(),
			snapshot.BaseCurrencyCode,
		})
	}
	rows = append(rows, []any{}, []any{"From", "To", "Amount"})
	for _, d := range snapshot.NetDebts {
		rows = append(rows, []any{d.FromMemberID, d.ToMemberID, d.Amount.InexactFloat64()})
	}
	return setRows(f, sheetBalances, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// ExportBalanceStatement renders the current balances as a PDF statement.
func (s *exportService) ExportBalanceStatement(ctx context.Context, groupID, requestingUserID string, w io.Writer) error {
	snapshot, err := s.balances.ComputeBalances(ctx, groupID, requestingUserID)
	if err != nil {
		return err
	}

	pdf := buildBalanceStatement(snapshot, time.Now().UTC())
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}
	s.LogInfo(ctx, "Balance statement exported", slog.String("group_id", groupID))
	return nil
}

func buildBalanceStatement(snapshot *domain.GroupBalanceSnapshot, generatedAt time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Balance Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Group: %s", snapshot.GroupID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Currency: %s", snapshot.BaseCurrencyCode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 10)
	for _, h := range []string{"Member", "Owed To Member", "Member Owes", "Net"} {
		pdf.CellFormat(45, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, m := range snapshot.Members {
		pdf.CellFormat(45, 6, m.MemberID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, formatAmount(m.OwedToMember), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, formatAmount(m.MemberOwes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, formatAmount(m.Net), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Suggested transfers")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	if len(snapshot.SuggestedTransfers) == 0 {
		pdf.Cell(0, 6, "All settled up.")
		pdf.Ln(5)
	}
	for _, t := range snapshot.SuggestedTransfers {
		pdf.Cell(0, 6, fmt.Sprintf("%s pays %s %s %s", t.FromMemberID, t.ToMemberID, formatAmount(t.Amount), snapshot.BaseCurrencyCode))
		pdf.Ln(5)
	}
	return pdf
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
