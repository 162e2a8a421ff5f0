package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

const OtherCategory = "Other"

// Transaction - строка выгрузки расходов. Суммы расходов неотрицательны.
type Transaction struct {
	Date     string          `json:"date" yaml:"date"`
	Category string          `json:"category" yaml:"category"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount" validate:"gte=0"`
}

type Debt struct {
	Name         string           `json:"name" yaml:"name" validate:"required,max=200"`
	Amount       decimal.Decimal  `json:"amount" yaml:"amount" validate:"gte=0"`
	InterestRate decimal.Decimal  `json:"interest_rate" yaml:"interest_rate" validate:"gte=0"`
	MinPayment   *decimal.Decimal `json:"min_payment,omitempty" yaml:"min_payment,omitempty" validate:"omitempty,gte=0"`
}

// FinancialProfile - нормализованный вход для всех видов анализа.
type FinancialProfile struct {
	MonthlyIncome  decimal.Decimal            `json:"monthly_income" yaml:"monthly_income" validate:"gte=0"`
	Dependants     int                        `json:"dependants" yaml:"dependants" validate:"gte=0"`
	Transactions   []Transaction              `json:"transactions,omitempty" yaml:"transactions,omitempty" validate:"dive"`
	ManualExpenses map[string]decimal.Decimal `json:"manual_expenses,omitempty" yaml:"manual_expenses,omitempty"`
	Debts          []Debt                     `json:"debts,omitempty" yaml:"debts,omitempty" validate:"dive"`
}

// HasTransactions сообщает, являются ли транзакции источником расходов.
func (p FinancialProfile) HasTransactions() bool {
	return len(p.Transactions) > 0
}

// NormalizeCategory приводит пустую категорию к "Other".
func NormalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return OtherCategory
	}
	return trimmed
}
