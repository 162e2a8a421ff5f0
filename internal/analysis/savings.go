package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"example.com/ai-finance-coach/backend/internal/models"
)

// EmergencyFundStatus - статус резервного фонда в rule-based ответе.
const EmergencyFundStatus = "Not started - begin building immediately"

var (
	half                = decimal.RequireFromString("0.5")
	retirementShare     = decimal.RequireFromString("0.8")
	retirementIncomeCap = decimal.RequireFromString("0.15")
)

// AnalyzeSavings рассчитывает резервный фонд и распределение свободных средств.
func AnalyzeSavings(profile models.FinancialProfile, budget models.BudgetAnalysis) models.SavingsStrategy {
	income := profile.MonthlyIncome
	totalExpenses := nonNegative(budget.TotalExpenses)

	emergencyMonths := 3
	if profile.Dependants > 0 {
		emergencyMonths = 6
	}

	available := decimal.Max(decimal.Zero, income.Sub(totalExpenses))
	allocations := make([]models.SavingsAllocation, 0, 3)

	if available.IsPositive() {
		emergency := decimal.Min(available.Mul(half), totalExpenses.Mul(half))
		allocations = appendAllocation(allocations, "Emergency Fund", emergency,
			fmt.Sprintf("Build %d-month emergency fund first", emergencyMonths))

		remaining := available.Sub(emergency)
		if remaining.IsPositive() {
			retirement := decimal.Min(remaining.Mul(retirementShare), income.Mul(retirementIncomeCap))
			allocations = appendAllocation(allocations, "Retirement", retirement,
				"Long-term retirement savings (aim for 15% of income)")

			remaining = remaining.Sub(retirement)
			if remaining.IsPositive() {
				allocations = appendAllocation(allocations, "Other Goals", remaining,
					"Vacation, home down payment, or other financial goals")
			}
		}
	}

	return models.SavingsStrategy{
		EmergencyFund: models.EmergencyFund{
			RecommendedAmount: totalExpenses.Mul(decimal.NewFromInt(int64(emergencyMonths))),
			CurrentAmount:     decimal.Zero,
			StatusText:        EmergencyFundStatus,
		},
		Allocations:          allocations,
		AutomationTechniques: automationTechniques(),
	}
}

func appendAllocation(allocations []models.SavingsAllocation, category string, amount decimal.Decimal, rationale string) []models.SavingsAllocation {
	if !amount.IsPositive() {
		return allocations
	}
	return append(allocations, models.SavingsAllocation{
		Category:  category,
		Amount:    amount,
		Rationale: rationale,
	})
}

func automationTechniques() []models.AutomationTechnique {
	return []models.AutomationTechnique{
		{Name: "Automatic Transfer", Description: "Set up automatic transfers on payday to savings accounts"},
		{Name: "Round-up Savings", Description: "Use apps that round up purchases and save the difference"},
		{Name: "Direct Deposit Split", Description: "Split direct deposit to automatically save a percentage"},
	}
}
