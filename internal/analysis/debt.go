package analysis

import (
	"github.com/shopspring/decimal"

	"example.com/ai-finance-coach/backend/internal/models"
)

// MinPayoffMonths - нижняя граница срока погашения в месяцах.
const MinPayoffMonths = 24

// consolidationRate - средняя годовая ставка (в процентах), выше которой предлагаем консолидацию.
var consolidationRate = decimal.NewFromInt(15)

var (
	defaultMinPaymentShare = decimal.RequireFromString("0.02")
	monthsInYear           = decimal.NewFromInt(12)
)

// payoffFactors описывает эвристику одного метода погашения.
type payoffFactors struct {
	paymentMultiplier decimal.Decimal
	interestFactor    decimal.Decimal
	extraPayment      decimal.Decimal
}

var (
	avalancheFactors = payoffFactors{
		paymentMultiplier: decimal.RequireFromString("1.5"),
		interestFactor:    decimal.RequireFromString("0.7"),
		extraPayment:      decimal.RequireFromString("0.5"),
	}
	snowballFactors = payoffFactors{
		paymentMultiplier: decimal.RequireFromString("1.3"),
		interestFactor:    decimal.RequireFromString("0.8"),
		extraPayment:      decimal.RequireFromString("0.3"),
	}
)

// AnalyzeDebt строит приближенные планы погашения (avalanche и snowball) и советы.
func AnalyzeDebt(profile models.FinancialProfile) models.DebtReduction {
	if len(profile.Debts) == 0 {
		return models.DebtReduction{
			TotalDebt:       decimal.Zero,
			Debts:           []models.Debt{},
			PayoffPlans:     models.PayoffPlans{},
			Recommendations: []models.DebtRecommendation{},
		}
	}

	totalDebt := decimal.Zero
	totalMinPayments := decimal.Zero
	totalRate := decimal.Zero
	for _, debt := range profile.Debts {
		totalDebt = totalDebt.Add(debt.Amount)
		totalMinPayments = totalMinPayments.Add(minPayment(debt))
		totalRate = totalRate.Add(debt.InterestRate)
	}
	avgRate := totalRate.Div(decimal.NewFromInt(int64(len(profile.Debts))))

	debts := make([]models.Debt, len(profile.Debts))
	copy(debts, profile.Debts)

	return models.DebtReduction{
		TotalDebt: totalDebt,
		Debts:     debts,
		PayoffPlans: models.PayoffPlans{
			Avalanche: payoffPlan(totalDebt, totalMinPayments, avgRate, avalancheFactors),
			Snowball:  payoffPlan(totalDebt, totalMinPayments, avgRate, snowballFactors),
		},
		Recommendations: debtRecommendations(totalDebt, avgRate),
	}
}

func minPayment(debt models.Debt) decimal.Decimal {
	if debt.MinPayment != nil {
		return *debt.MinPayment
	}
	return debt.Amount.Mul(defaultMinPaymentShare)
}

func payoffPlan(totalDebt, totalMinPayments, avgRate decimal.Decimal, factors payoffFactors) models.PayoffPlan {
	months := payoffMonths(totalDebt, totalMinPayments.Mul(factors.paymentMultiplier))
	monthsDec := decimal.NewFromInt(int64(months))

	interest := totalDebt.
		Mul(avgRate.Div(hundred)).
		Mul(monthsDec.Div(monthsInYear)).
		Mul(factors.interestFactor)

	payment := totalDebt.Div(monthsDec).Add(totalMinPayments.Mul(factors.extraPayment))

	return models.PayoffPlan{
		TotalInterest:  interest.Round(2),
		MonthsToPayoff: months,
		MonthlyPayment: payment.Round(2),
	}
}

// payoffMonths не опускается ниже MinPayoffMonths; при нулевом платеже возвращает нижнюю границу.
func payoffMonths(totalDebt, monthlyPayment decimal.Decimal) int {
	if !monthlyPayment.IsPositive() {
		return MinPayoffMonths
	}

	months := totalDebt.Div(monthlyPayment).Floor().IntPart()
	if months < MinPayoffMonths {
		return MinPayoffMonths
	}
	return int(months)
}

func debtRecommendations(totalDebt, avgRate decimal.Decimal) []models.DebtRecommendation {
	recommendations := make([]models.DebtRecommendation, 0, 3)
	if !totalDebt.IsPositive() {
		return recommendations
	}

	recommendations = append(recommendations,
		models.DebtRecommendation{
			Title:       "Increase Monthly Payments",
			Description: "Pay more than the minimum to reduce interest. Even an extra $50/month helps significantly.",
			Impact:      "Reduces total interest paid and time to debt freedom",
		},
		models.DebtRecommendation{
			Title:       "Choose Your Strategy",
			Description: "Avalanche method saves more money, snowball method provides psychological wins",
			Impact:      "Structured approach increases success rate",
		},
	)

	if avgRate.GreaterThan(consolidationRate) {
		recommendations = append(recommendations, models.DebtRecommendation{
			Title:       "Consider Debt Consolidation",
			Description: "High interest rates detected. Look into balance transfers or personal loans with lower rates.",
			Impact:      "Could reduce interest rates and simplify payments",
		})
	}

	return recommendations
}
