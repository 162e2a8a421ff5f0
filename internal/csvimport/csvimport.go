package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"example.com/ai-finance-coach/backend/internal/models"
)

const (
	columnDate     = "Date"
	columnCategory = "Category"
	columnAmount   = "Amount"

	dateLayout = "2006-01-02"
)

// RequiredColumns перечисляет обязательные колонки выгрузки.
var RequiredColumns = []string{columnDate, columnCategory, columnAmount}

var dateLayouts = []string{
	dateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"2.1.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

var amountReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₽", "",
	",", "", " ", "", "\u00a0", "",
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ValidationError описывает проблему во входном CSV. Это ошибка клиента.
type ValidationError struct {
	Line int
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv line %d: %s", e.Line, e.Msg)
	}
	return "csv: " + e.Msg
}

type row struct {
	Date     string `csv:"Date"`
	Category string `csv:"Category"`
	Amount   string `csv:"Amount"`
}

// Parse читает выгрузку транзакций с колонками Date, Category, Amount.
func Parse(r io.Reader) ([]models.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ValidationError{Msg: "file is empty"}
	}

	comma := detectDelimiter(data)
	header, err := newReader(data, comma).Read()
	if err != nil {
		return nil, &ValidationError{Line: 1, Msg: fmt.Sprintf("cannot read header: %v", err)}
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []row
	if err := gocsv.UnmarshalCSV(newReader(data, comma), &rows); err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &ValidationError{Line: parseErr.Line, Msg: parseErr.Err.Error()}
		}
		return nil, &ValidationError{Msg: err.Error()}
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for i, item := range rows {
		line := i + 2
		if isBlank(item) {
			continue
		}

		date, err := NormalizeDate(item.Date)
		if err != nil {
			return nil, &ValidationError{Line: line, Msg: err.Error()}
		}

		amount, err := ParseAmount(item.Amount)
		if err != nil {
			return nil, &ValidationError{Line: line, Msg: err.Error()}
		}
		if amount.IsNegative() {
			return nil, &ValidationError{Line: line, Msg: fmt.Sprintf("amount must not be negative: %q", item.Amount)}
		}

		transactions = append(transactions, models.Transaction{
			Date:     date,
			Category: strings.TrimSpace(item.Category),
			Amount:   amount,
		})
	}

	if len(transactions) == 0 {
		return nil, &ValidationError{Msg: "file contains no transactions"}
	}

	return transactions, nil
}

// ParseAmount очищает сумму от символов валют, разделителей тысяч и пробелов.
// Сумма в скобках считается отрицательной.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(value))
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}

	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// NormalizeDate приводит дату к виду YYYY-MM-DD.
func NormalizeDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("date is empty")
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Format(dateLayout), nil
		}
	}

	return "", fmt.Errorf("invalid date %q", value)
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}

	missing := make([]string, 0, len(RequiredColumns))
	for _, column := range RequiredColumns {
		if !present[column] {
			missing = append(missing, column)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{
			Line: 1,
			Msg:  fmt.Sprintf("CSV must contain columns: %s (missing %s)", strings.Join(RequiredColumns, ", "), strings.Join(missing, ", ")),
		}
	}
	return nil
}

func detectDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}

	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

func newReader(data []byte, comma rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	return reader
}

func isBlank(item row) bool {
	return strings.TrimSpace(item.Date) == "" &&
		strings.TrimSpace(item.Category) == "" &&
		strings.TrimSpace(item.Amount) == ""
}
