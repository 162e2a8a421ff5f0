package analysis

import "example.com/ai-finance-coach/backend/internal/models"

// Result собирает три раздела rule-based анализа без метаданных.
type Result struct {
	Budget  models.BudgetAnalysis
	Savings models.SavingsStrategy
	Debt    models.DebtReduction
}

// Run выполняет бюджет, сбережения (на основе бюджета) и долги.
func Run(profile models.FinancialProfile) Result {
	budget := AnalyzeBudget(profile)
	return Result{
		Budget:  budget,
		Savings: AnalyzeSavings(profile, budget),
		Debt:    AnalyzeDebt(profile),
	}
}
