package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"example.com/ai-finance-coach/backend/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat разбирает формат вывода (json|yaml|csv).
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown report format %q", value)
	}
}

// Row - одна строка плоского CSV-отчета.
type Row struct {
	Section string          `csv:"section"`
	Item    string          `csv:"item"`
	Amount  decimal.Decimal `csv:"amount"`
	Detail  string          `csv:"detail"`
}

// Render пишет результат анализа в выбранном формате.
func Render(w io.Writer, result models.AnalysisResult, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	case FormatCSV:
		return writeCSV(w, Rows(result))
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteCategoriesCSV пишет разбивку расходов по категориям.
func WriteCategoriesCSV(w io.Writer, categories []models.CategorySpending) error {
	return writeCSV(w, categories)
}

// Rows раскладывает результат в плоский список строк.
func Rows(result models.AnalysisResult) []Row {
	budget := result.BudgetAnalysis
	savings := result.SavingsStrategy
	debt := result.DebtReduction

	rows := []Row{
		{Section: models.SectionBudgetAnalysis, Item: "monthly_income", Amount: budget.MonthlyIncome},
		{Section: models.SectionBudgetAnalysis, Item: "total_expenses", Amount: budget.TotalExpenses},
	}

	for _, category := range budget.SpendingCategories {
		rows = append(rows, Row{
			Section: models.SectionBudgetAnalysis,
			Item:    "category:" + category.Category,
			Amount:  category.Amount,
			Detail:  category.Percentage.StringFixed(2) + "%",
		})
	}

	for _, recommendation := range budget.Recommendations {
		rows = append(rows, Row{
			Section: models.SectionBudgetAnalysis,
			Item:    "recommendation:" + recommendation.Category,
			Amount:  recommendation.PotentialSavings,
			Detail:  recommendation.RecommendationText,
		})
	}

	rows = append(rows, Row{
		Section: models.SectionSavingsStrategy,
		Item:    "emergency_fund",
		Amount:  savings.EmergencyFund.RecommendedAmount,
		Detail:  savings.EmergencyFund.StatusText,
	})

	for _, allocation := range savings.Allocations {
		rows = append(rows, Row{
			Section: models.SectionSavingsStrategy,
			Item:    "allocation:" + allocation.Category,
			Amount:  allocation.Amount,
			Detail:  allocation.Rationale,
		})
	}

	rows = append(rows, Row{Section: models.SectionDebtReduction, Item: "total_debt", Amount: debt.TotalDebt})

	plans := []struct {
		name string
		plan models.PayoffPlan
	}{
		{name: "avalanche", plan: debt.PayoffPlans.Avalanche},
		{name: "snowball", plan: debt.PayoffPlans.Snowball},
	}
	for _, item := range plans {
		rows = append(rows, Row{
			Section: models.SectionDebtReduction,
			Item:    item.name + ":monthly_payment",
			Amount:  item.plan.MonthlyPayment,
			Detail:  fmt.Sprintf("%d months, total interest %s", item.plan.MonthsToPayoff, item.plan.TotalInterest.StringFixed(2)),
		})
	}

	for _, recommendation := range debt.Recommendations {
		rows = append(rows, Row{
			Section: models.SectionDebtReduction,
			Item:    "recommendation:" + recommendation.Title,
			Amount:  decimal.Zero,
			Detail:  recommendation.Description,
		})
	}

	return rows
}

func writeCSV(w io.Writer, rows interface{}) error {
	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
