package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"example.com/ai-finance-coach/backend/internal/models"
)

const systemPrompt = "You are a personal finance advisor. Respond with JSON only, without code fences or extra text. All amounts are monthly numbers in the user's currency."

// Stage описывает одного агента конвейера.
type Stage struct {
	Agent     string
	OutputKey string
	Reads     []string
	task      string
	schema    string
}

// Stages возвращает агентов в порядке выполнения.
func Stages() []Stage {
	return []Stage{
		{
			Agent:     "BudgetAnalysisAgent",
			OutputKey: models.SectionBudgetAnalysis,
			task: `Review income, transactions and expenses.
- Group every expense into a category; percentages of total spending should add up to 100.
- Separate essential from discretionary spending and account for dependants.
- Compare against common ratios (housing around 30%, food around 15%).
- Give 3-5 specific recommendations, each with estimated monthly potential_savings.`,
			schema: `{
  "total_expenses": number,
  "monthly_income": number,
  "spending_categories": [{"category": string, "amount": number, "percentage": number}],
  "recommendations": [{"category": string, "recommendation": string, "potential_savings": number}]
}`,
		},
		{
			Agent:     "SavingsStrategyAgent",
			OutputKey: models.SectionSavingsStrategy,
			Reads:     []string{models.SectionBudgetAnalysis},
			task: `Read budget_analysis from the session state first.
- Size an emergency fund from expenses and dependants.
- Split the money left after expenses between emergency fund, retirement and other goals.
- Suggest practical ways to automate saving.`,
			schema: `{
  "emergency_fund": {"recommended_amount": number, "current_amount": number, "current_status": string},
  "recommendations": [{"category": string, "amount": number, "rationale": string}],
  "automation_techniques": [{"name": string, "description": string}]
}`,
		},
		{
			Agent:     "DebtReductionAgent",
			OutputKey: models.SectionDebtReduction,
			Reads:     []string{models.SectionBudgetAnalysis, models.SectionSavingsStrategy},
			task: `Read budget_analysis and savings_strategy from the session state first.
- Order debts by interest rate and balance and build avalanche and snowball payoff plans.
- Estimate total interest and months until debt free for both plans.
- Mention consolidation or refinancing when rates are high.
- Keep the plan consistent with the cash flow and savings goals above.`,
			schema: `{
  "total_debt": number,
  "debts": [{"name": string, "amount": number, "interest_rate": number, "min_payment": number}],
  "payoff_plans": {
    "avalanche": {"total_interest": number, "months_to_payoff": integer, "monthly_payment": number},
    "snowball": {"total_interest": number, "months_to_payoff": integer, "monthly_payment": number}
  },
  "recommendations": [{"title": string, "description": string, "impact": string}]
}`,
		},
	}
}

func buildStageMessages(stage Stage, profileJSON []byte, state map[string]any) ([]Message, error) {
	shared := make(map[string]any, len(stage.Reads)+4)
	for _, key := range append([]string{keyCategorySpending, keyTotalSpending, keyManualCategorySpending, keyTotalManualSpending}, stage.Reads...) {
		if value, ok := state[key]; ok {
			shared[key] = value
		}
	}

	statePayload, err := json.MarshalIndent(shared, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are %s.\n\nTask:\n%s\n\n", stage.Agent, stage.task)
	fmt.Fprintf(&prompt, "Requirements:\n- Output JSON only.\n- Schema:\n%s\n\n", stage.schema)
	fmt.Fprintf(&prompt, "Financial data:\n%s\n\nSession state:\n%s", string(profileJSON), string(statePayload))

	return []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: prompt.String()},
	}, nil
}
