package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/export"
)

// Ledger kinds accepted by the export endpoint.
const (
	LedgerExpenses = "expenses"
	LedgerIncome   = "income"
)

type ledgerSource interface {
	ListExpenses(ctx context.Context, filter models.LedgerFilter) ([]models.Expense, error)
	ListIncome(ctx context.Context, filter models.LedgerFilter) ([]models.Income, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportMetrics interface {
	RecordExport(kind, format string)
}

// ExportResult is a rendered ledger ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// FinanceExportService renders expense and income ledgers.
type FinanceExportService struct {
	ledger  ledgerSource
	csv     csvRenderer
	pdf     titledRenderer
	xlsx    titledRenderer
	metrics exportMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewFinanceExportService constructs the service. Nil renderers fall back to the defaults.
func NewFinanceExportService(ledger ledgerSource, metrics exportMetrics, logger *zap.Logger, csv csvRenderer, pdf, xlsx titledRenderer) *FinanceExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &FinanceExportService{ledger: ledger, csv: csv, pdf: pdf, xlsx: xlsx, metrics: metrics, logger: logger, now: time.Now}
}

// Export renders one ledger of the root in the requested format.
func (s *FinanceExportService) Export(ctx context.Context, filter models.LedgerFilter, kind string, format export.Format) (*ExportResult, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch kind {
	case LedgerExpenses:
		dataset, title, err = s.expenseDataset(ctx, filter)
	case LedgerIncome:
		dataset, title, err = s.incomeDataset(ctx, filter)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be expenses or income")
	}
	if err != nil {
		return nil, internalError(err, "failed to load ledger")
	}

	var payload []byte
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	case export.FormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
	}
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(kind, string(format))
	}
	s.logger.Info("ledger exported", zap.String("kind", kind), zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("%s_%d_%s.%s", kind, filter.RootCode, s.now().UTC().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *FinanceExportService) expenseDataset(ctx context.Context, filter models.LedgerFilter) (export.Dataset, string, error) {
	expenses, err := s.ledger.ListExpenses(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(expenses))
	for _, x := range expenses {
		rows = append(rows, map[string]string{
			"Code":     fmt.Sprintf("%d", x.ExpensesCode),
			"Reason":   x.Reason,
			"Amount":   x.Amount.StringFixed(2),
			"Employee": x.EmployeeName,
			"Time":     x.ExpenseTime.UTC().Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{
		Headers: []string{"Code", "Reason", "Amount", "Employee", "Time"},
		Rows:    rows,
		Numeric: map[string]bool{"Code": true, "Amount": true},
	}, "Expenses", nil
}

func (s *FinanceExportService) incomeDataset(ctx context.Context, filter models.LedgerFilter) (export.Dataset, string, error) {
	income, err := s.ledger.ListIncome(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(income))
	for _, in := range income {
		rows = append(rows, map[string]string{
			"ID":           fmt.Sprintf("%d", in.ID),
			"Amount":       in.Amount.StringFixed(2),
			"Payment Date": in.PaymentDate.UTC().Format(DateLayout),
			"Description":  in.Description,
		})
	}
	return export.Dataset{
		Headers: []string{"ID", "Amount", "Payment Date", "Description"},
		Rows:    rows,
		Numeric: map[string]bool{"ID": true, "Amount": true},
	}, "Income", nil
}
