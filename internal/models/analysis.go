package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PoweredBy string

const (
	PoweredByAI                   PoweredBy = "AI"
	PoweredByRuleBased            PoweredBy = "RuleBased"
	PoweredByFallbackAfterAIError PoweredBy = "FallbackAfterAIError"
)

const (
	SectionBudgetAnalysis  = "budget_analysis"
	SectionSavingsStrategy = "savings_strategy"
	SectionDebtReduction   = "debt_reduction"
)

// Sections перечисляет ключи разделов результата в порядке выполнения.
func Sections() []string {
	return []string{SectionBudgetAnalysis, SectionSavingsStrategy, SectionDebtReduction}
}

type CategorySpending struct {
	Category   string          `json:"category" yaml:"category" csv:"category" validate:"required"`
	Amount     decimal.Decimal `json:"amount" yaml:"amount" csv:"amount" validate:"gte=0"`
	Percentage decimal.Decimal `json:"percentage" yaml:"percentage" csv:"percentage" validate:"gte=0,lte=100"`
}

type SpendingRecommendation struct {
	Category           string          `json:"category" yaml:"category" validate:"required"`
	RecommendationText string          `json:"recommendation" yaml:"recommendation" validate:"required"`
	PotentialSavings   decimal.Decimal `json:"potential_savings" yaml:"potential_savings" validate:"gte=0"`
}

type BudgetAnalysis struct {
	TotalExpenses      decimal.Decimal          `json:"total_expenses" yaml:"total_expenses" validate:"gte=0"`
	MonthlyIncome      decimal.Decimal          `json:"monthly_income" yaml:"monthly_income" validate:"gte=0"`
	SpendingCategories []CategorySpending       `json:"spending_categories" yaml:"spending_categories" validate:"required,dive"`
	Recommendations    []SpendingRecommendation `json:"recommendations" yaml:"recommendations" validate:"required,dive"`
}

type EmergencyFund struct {
	RecommendedAmount decimal.Decimal `json:"recommended_amount" yaml:"recommended_amount" validate:"gte=0"`
	CurrentAmount     decimal.Decimal `json:"current_amount" yaml:"current_amount" validate:"gte=0"`
	StatusText        string          `json:"current_status" yaml:"current_status" validate:"required"`
}

type SavingsAllocation struct {
	Category  string          `json:"category" yaml:"category" validate:"required"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount" validate:"gte=0"`
	Rationale string          `json:"rationale" yaml:"rationale"`
}

type AutomationTechnique struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
}

type SavingsStrategy struct {
	EmergencyFund        EmergencyFund         `json:"emergency_fund" yaml:"emergency_fund"`
	Allocations          []SavingsAllocation   `json:"recommendations" yaml:"recommendations" validate:"required,dive"`
	AutomationTechniques []AutomationTechnique `json:"automation_techniques" yaml:"automation_techniques" validate:"dive"`
}

type PayoffPlan struct {
	TotalInterest  decimal.Decimal `json:"total_interest" yaml:"total_interest" validate:"gte=0"`
	MonthsToPayoff int             `json:"months_to_payoff" yaml:"months_to_payoff" validate:"gte=0"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" yaml:"monthly_payment" validate:"gte=0"`
}

type PayoffPlans struct {
	Avalanche PayoffPlan `json:"avalanche" yaml:"avalanche"`
	Snowball  PayoffPlan `json:"snowball" yaml:"snowball"`
}

type DebtRecommendation struct {
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	Impact      string `json:"impact" yaml:"impact"`
}

type DebtReduction struct {
	TotalDebt       decimal.Decimal      `json:"total_debt" yaml:"total_debt" validate:"gte=0"`
	Debts           []Debt               `json:"debts" yaml:"debts" validate:"required,dive"`
	PayoffPlans     PayoffPlans          `json:"payoff_plans" yaml:"payoff_plans"`
	Recommendations []DebtRecommendation `json:"recommendations" yaml:"recommendations" validate:"dive"`
}

type AnalysisMetadata struct {
	PoweredBy         PoweredBy `json:"powered_by" yaml:"powered_by"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
	SessionID         string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Error             string    `json:"error,omitempty" yaml:"error,omitempty"`
	FallbackReason    string    `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
	AgentsUsed        []string  `json:"agents_used,omitempty" yaml:"agents_used,omitempty"`
	DefaultedSections []string  `json:"defaulted_sections,omitempty" yaml:"defaulted_sections,omitempty"`
	DataSource        string    `json:"data_source,omitempty" yaml:"data_source,omitempty"`
}

type AnalysisResult struct {
	BudgetAnalysis  BudgetAnalysis   `json:"budget_analysis" yaml:"budget_analysis"`
	SavingsStrategy SavingsStrategy  `json:"savings_strategy" yaml:"savings_strategy"`
	DebtReduction   DebtReduction    `json:"debt_reduction" yaml:"debt_reduction"`
	Metadata        AnalysisMetadata `json:"analysis_metadata" yaml:"analysis_metadata"`
}
