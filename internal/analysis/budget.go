package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"example.com/ai-finance-coach/backend/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)

	overspendingShare  = decimal.RequireFromString("0.9")
	overspendingSaving = decimal.RequireFromString("0.1")

	housingLimitShare  = decimal.RequireFromString("0.35")
	housingTargetShare = decimal.RequireFromString("0.30")

	foodLimitShare = decimal.RequireFromString("0.15")
	foodSaving     = decimal.RequireFromString("0.2")

	entertainmentLimitShare = decimal.RequireFromString("0.1")
	entertainmentSaving     = decimal.RequireFromString("0.3")
)

const (
	categoryHousing       = "Housing"
	categoryFood          = "Food"
	categoryEntertainment = "Entertainment"
	categoryGeneral       = "General Spending"
)

// AnalyzeBudget группирует расходы по категориям и формирует рекомендации.
func AnalyzeBudget(profile models.FinancialProfile) models.BudgetAnalysis {
	expenses := ExpensesByCategory(profile)
	total := sumValues(expenses)

	categories := make([]models.CategorySpending, 0, len(expenses))
	for category, amount := range expenses {
		percentage := decimal.Zero
		if total.IsPositive() {
			percentage = amount.Div(total).Mul(hundred).Round(2)
		}
		categories = append(categories, models.CategorySpending{
			Category:   category,
			Amount:     amount,
			Percentage: percentage,
		})
	}
	sortCategories(categories)

	return models.BudgetAnalysis{
		TotalExpenses:      total,
		MonthlyIncome:      profile.MonthlyIncome,
		SpendingCategories: categories,
		Recommendations:    budgetRecommendations(profile.MonthlyIncome, total, expenses),
	}
}

// ExpensesByCategory возвращает суммы расходов по категориям.
// Непустые транзакции имеют приоритет над ручными расходами.
func ExpensesByCategory(profile models.FinancialProfile) map[string]decimal.Decimal {
	expenses := make(map[string]decimal.Decimal)

	if profile.HasTransactions() {
		for _, tx := range profile.Transactions {
			category := models.NormalizeCategory(tx.Category)
			expenses[category] = expenses[category].Add(tx.Amount)
		}
		return expenses
	}

	for category, amount := range profile.ManualExpenses {
		if amount.IsPositive() {
			expenses[category] = amount
		}
	}
	return expenses
}

func budgetRecommendations(income, total decimal.Decimal, expenses map[string]decimal.Decimal) []models.SpendingRecommendation {
	recommendations := make([]models.SpendingRecommendation, 0, 4)

	if total.GreaterThan(income.Mul(overspendingShare)) {
		recommendations = append(recommendations, models.SpendingRecommendation{
			Category:           categoryGeneral,
			RecommendationText: "Your expenses are very high relative to income. Consider reducing discretionary spending.",
			PotentialSavings:   total.Mul(overspendingSaving),
		})
	}

	housing := expenses[categoryHousing]
	if housing.GreaterThan(income.Mul(housingLimitShare)) {
		recommendations = append(recommendations, models.SpendingRecommendation{
			Category:           categoryHousing,
			RecommendationText: "Housing costs exceed 35% of income. Consider downsizing or finding roommates.",
			PotentialSavings:   nonNegative(housing.Sub(income.Mul(housingTargetShare))),
		})
	}

	food := expenses[categoryFood]
	if food.GreaterThan(income.Mul(foodLimitShare)) {
		recommendations = append(recommendations, models.SpendingRecommendation{
			Category:           categoryFood,
			RecommendationText: "Food expenses are high. Try meal planning and cooking at home more often.",
			PotentialSavings:   food.Mul(foodSaving),
		})
	}

	entertainment := expenses[categoryEntertainment]
	if entertainment.GreaterThan(income.Mul(entertainmentLimitShare)) {
		recommendations = append(recommendations, models.SpendingRecommendation{
			Category:           categoryEntertainment,
			RecommendationText: "Entertainment spending is above 10% of income. Look for free activities.",
			PotentialSavings:   entertainment.Mul(entertainmentSaving),
		})
	}

	return recommendations
}

// sortCategories: сначала крупные траты, при равенстве по имени.
func sortCategories(categories []models.CategorySpending) {
	sort.Slice(categories, func(i, j int) bool {
		if cmp := categories[i].Amount.Cmp(categories[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return categories[i].Category < categories[j].Category
	})
}

func sumValues(values map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(value)
	}
	return total
}

func nonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
