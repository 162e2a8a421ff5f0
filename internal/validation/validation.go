package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"example.com/ai-finance-coach/backend/internal/models"
)

// New создает валидатор go-playground/validator, понимающий decimal.Decimal.
// В ошибках поля называются по json-тегам.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterStructValidation(debtReductionLevel, models.DebtReduction{})
	return v
}

// debtReductionLevel требует срок погашения не меньше месяца, если долги есть.
func debtReductionLevel(sl validator.StructLevel) {
	reduction, ok := sl.Current().Interface().(models.DebtReduction)
	if !ok || len(reduction.Debts) == 0 {
		return
	}

	plans := map[string]models.PayoffPlan{
		"avalanche": reduction.PayoffPlans.Avalanche,
		"snowball":  reduction.PayoffPlans.Snowball,
	}
	for name, plan := range plans {
		if plan.MonthsToPayoff < 1 {
			sl.ReportError(plan.MonthsToPayoff, "payoff_plans."+name+".months_to_payoff", "MonthsToPayoff", "min", "1")
		}
	}
}

// decimalValue подставляет float64 вместо decimal, чтобы работали gte/lte.
func decimalValue(field reflect.Value) interface{} {
	if value, ok := field.Interface().(decimal.Decimal); ok {
		return value.InexactFloat64()
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}
