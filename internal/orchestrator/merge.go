package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"example.com/ai-finance-coach/backend/internal/ai"
	"example.com/ai-finance-coach/backend/internal/analysis"
	"example.com/ai-finance-coach/backend/internal/models"
)

var errSectionMissing = errors.New("section missing")

// section хранит либо проверенное значение от AI, либо rule-based значение, которым его заменили.
type section[T any] struct {
	value     T
	defaulted bool
	reason    error
}

// decodeSection разбирает и валидирует раздел ответа AI; при любой проблеме возвращает fallback.
func decodeSection[T any](validate *validator.Validate, raw json.RawMessage, fallback T) section[T] {
	if len(raw) == 0 {
		return section[T]{value: fallback, defaulted: true, reason: errSectionMissing}
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return section[T]{value: fallback, defaulted: true, reason: fmt.Errorf("decode: %w", err)}
	}

	if err := validate.Struct(&value); err != nil {
		return section[T]{value: fallback, defaulted: true, reason: fmt.Errorf("validate: %w", err)}
	}

	return section[T]{value: value}
}

// merge собирает результат из разделов AI, подставляя rule-based значения по отдельности.
func (o *Orchestrator) merge(profile models.FinancialProfile, output ai.Result) models.AnalysisResult {
	defaults := analysis.Run(profile)

	budget := decodeSection(o.validate, output.Sections[models.SectionBudgetAnalysis], defaults.Budget)
	savings := decodeSection(o.validate, output.Sections[models.SectionSavingsStrategy], defaults.Savings)
	debt := decodeSection(o.validate, output.Sections[models.SectionDebtReduction], defaults.Debt)

	metadata := models.AnalysisMetadata{
		PoweredBy:  models.PoweredByAI,
		Timestamp:  o.now().UTC(),
		SessionID:  output.SessionID,
		AgentsUsed: output.AgentsUsed,
	}

	reasons := map[string]error{
		models.SectionBudgetAnalysis:  budget.reason,
		models.SectionSavingsStrategy: savings.reason,
		models.SectionDebtReduction:   debt.reason,
	}
	defaulted := map[string]bool{
		models.SectionBudgetAnalysis:  budget.defaulted,
		models.SectionSavingsStrategy: savings.defaulted,
		models.SectionDebtReduction:   debt.defaulted,
	}
	for _, key := range models.Sections() {
		if !defaulted[key] {
			continue
		}
		metadata.DefaultedSections = append(metadata.DefaultedSections, key)
		o.logger.WithField("section", key).WithError(reasons[key]).Info("ai section replaced by rule-based default")
	}

	return models.AnalysisResult{
		BudgetAnalysis:  normalizeBudget(budget.value),
		SavingsStrategy: normalizeSavings(savings.value),
		DebtReduction:   normalizeDebt(debt.value),
		Metadata:        metadata,
	}
}

func normalizeBudget(value models.BudgetAnalysis) models.BudgetAnalysis {
	if value.SpendingCategories == nil {
		value.SpendingCategories = []models.CategorySpending{}
	}
	if value.Recommendations == nil {
		value.Recommendations = []models.SpendingRecommendation{}
	}
	return value
}

func normalizeSavings(value models.SavingsStrategy) models.SavingsStrategy {
	if value.Allocations == nil {
		value.Allocations = []models.SavingsAllocation{}
	}
	if value.AutomationTechniques == nil {
		value.AutomationTechniques = []models.AutomationTechnique{}
	}
	return value
}

func normalizeDebt(value models.DebtReduction) models.DebtReduction {
	if value.Debts == nil {
		value.Debts = []models.Debt{}
	}
	if value.Recommendations == nil {
		value.Recommendations = []models.DebtRecommendation{}
	}
	return value
}
