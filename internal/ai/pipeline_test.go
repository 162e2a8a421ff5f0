package ai

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ai-finance-coach/backend/internal/logging"
	"example.com/ai-finance-coach/backend/internal/models"
)

type scriptedClient struct {
	mu      sync.Mutex
	replies []string
	failAt  int
	err     error
	calls   [][]Message
}

func (c *scriptedClient) Chat(_ context.Context, messages []Message) (string, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, messages)
	call := len(c.calls)
	if c.err != nil && call == c.failAt {
		return "", nil, c.err
	}
	if call > len(c.replies) {
		return "", nil, errors.New("unexpected call")
	}
	return c.replies[call-1], []byte(`{"raw":true}`), nil
}

type memoryAudit struct {
	mu      sync.Mutex
	records []AuditRecord
	err     error
}

func (a *memoryAudit) RecordAIRequest(_ context.Context, record AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return a.err
}

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func testProfile() models.FinancialProfile {
	return models.FinancialProfile{
		MonthlyIncome: decimal.NewFromInt(4000),
		Dependants:    2,
		Transactions: []models.Transaction{
			{Date: "2024-01-02", Category: "Food", Amount: decimal.NewFromInt(120)},
			{Date: "2024-01-03", Category: "Food", Amount: decimal.NewFromInt(80)},
			{Date: "2024-01-04", Category: "Housing", Amount: decimal.NewFromInt(1500)},
		},
		Debts: []models.Debt{{Name: "Card", Amount: decimal.NewFromInt(2000), InterestRate: decimal.NewFromInt(20)}},
	}
}

var testInfo = Info{Provider: "test", Model: "test-model", KeyConfigured: true}

func TestPipelineRunCollectsSections(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"total_expenses": 1700}`,
		"```json\n{\"emergency_fund\": {\"recommended_amount\": 10200}}\n```",
		`Here is the plan: {"total_debt": 2000}`,
	}}
	store := newTestStore(t)
	audit := &memoryAudit{}
	pipeline := NewPipeline(client, store, testInfo, WithAuditLog(audit), WithLogger(logging.Discard()))

	var stages []string
	result, err := pipeline.Run(context.Background(), testProfile(), func(agent string) {
		stages = append(stages, agent)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"BudgetAnalysisAgent", "SavingsStrategyAgent", "DebtReductionAgent"}, stages)
	assert.Equal(t, stages, result.AgentsUsed)
	assert.Regexp(t, `^finance_session_[0-9a-f-]{36}$`, result.SessionID)
	require.Len(t, result.Sections, 3)
	assert.JSONEq(t, `{"total_expenses": 1700}`, string(result.Sections[models.SectionBudgetAnalysis]))
	assert.JSONEq(t, `{"emergency_fund": {"recommended_amount": 10200}}`, string(result.Sections[models.SectionSavingsStrategy]))
	assert.JSONEq(t, `{"total_debt": 2000}`, string(result.Sections[models.SectionDebtReduction]))

	_, ok := store.Get(result.SessionID)
	assert.False(t, ok, "session must be deleted after the run")

	require.Len(t, audit.records, 3)
	assert.Equal(t, "SavingsStrategyAgent", audit.records[1].Agent)
	assert.Equal(t, "test-model", audit.records[1].Model)
	assert.NoError(t, audit.records[1].Err)
}

func TestPipelineSurvivesSessionEviction(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"total_expenses": 1700, "marker": "budget-output"}`,
		`{"emergency_fund": {"recommended_amount": 10200}}`,
		`{"total_debt": 2000}`,
	}}
	store := newTestStore(t)
	pipeline := NewPipeline(client, store, testInfo, WithLogger(logging.Discard()))

	result, err := pipeline.Run(context.Background(), testProfile(), func(agent string) {
		if agent == "SavingsStrategyAgent" {
			store.cache.Clear()
		}
	})
	require.NoError(t, err)

	require.Len(t, result.Sections, 3)
	assert.JSONEq(t, `{"total_expenses": 1700, "marker": "budget-output"}`, string(result.Sections[models.SectionBudgetAnalysis]))
	assert.Contains(t, client.calls[1][1].Content, "budget-output")
}

func TestPipelineLaterStagesSeePriorState(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"total_expenses": 1700, "marker": "budget-output"}`,
		`{"marker": "savings-output"}`,
		`{"total_debt": 2000}`,
	}}
	pipeline := NewPipeline(client, newTestStore(t), testInfo, WithLogger(logging.Discard()))

	_, err := pipeline.Run(context.Background(), testProfile(), nil)
	require.NoError(t, err)
	require.Len(t, client.calls, 3)

	first := client.calls[0][1].Content
	assert.Contains(t, first, "BudgetAnalysisAgent")
	assert.Contains(t, first, keyCategorySpending)
	assert.Contains(t, first, keyTotalSpending)
	assert.NotContains(t, first, "budget-output")

	second := client.calls[1][1].Content
	assert.Contains(t, second, "budget-output")
	assert.NotContains(t, second, "savings-output")

	third := client.calls[2][1].Content
	assert.Contains(t, third, "budget-output")
	assert.Contains(t, third, "savings-output")
	assert.Equal(t, RoleSystem, client.calls[2][0].Role)
}

func TestPipelineReplyWithoutJSONLeavesSectionEmpty(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"total_expenses": 1700}`,
		`I cannot help with that.`,
		`{"total_debt": 2000}`,
	}}
	pipeline := NewPipeline(client, newTestStore(t), testInfo, WithLogger(logging.Discard()))

	result, err := pipeline.Run(context.Background(), testProfile(), nil)
	require.NoError(t, err)

	assert.Len(t, result.Sections, 2)
	_, ok := result.Sections[models.SectionSavingsStrategy]
	assert.False(t, ok)
	assert.Len(t, result.AgentsUsed, 3)
}

func TestPipelineClientErrorFailsRun(t *testing.T) {
	boom := errors.New("quota exceeded")
	client := &scriptedClient{replies: []string{`{"total_expenses": 1}`}, failAt: 2, err: boom}
	store := newTestStore(t)
	audit := &memoryAudit{err: errors.New("db down")}
	pipeline := NewPipeline(client, store, testInfo, WithAuditLog(audit), WithLogger(logging.Discard()))

	result, err := pipeline.Run(context.Background(), testProfile(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "SavingsStrategyAgent")

	_, ok := store.Get(result.SessionID)
	assert.False(t, ok)

	require.Len(t, audit.records, 2)
	assert.ErrorIs(t, audit.records[1].Err, boom)
}

func TestPipelineCanceledContext(t *testing.T) {
	client := &scriptedClient{}
	pipeline := NewPipeline(client, newTestStore(t), testInfo, WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, testProfile(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.calls)
}

func TestPipelineUnavailable(t *testing.T) {
	store := newTestStore(t)

	withoutClient := NewPipeline(nil, store, testInfo)
	assert.False(t, withoutClient.Available())
	_, err := withoutClient.Run(context.Background(), testProfile(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	withoutKey := NewPipeline(&scriptedClient{}, store, Info{Provider: "gemini"})
	assert.False(t, withoutKey.Available())

	var nilPipeline *Pipeline
	assert.False(t, nilPipeline.Available())
}

func TestInitialStateAggregates(t *testing.T) {
	profile := testProfile()
	profile.ManualExpenses = map[string]decimal.Decimal{"Gym": decimal.NewFromInt(50), "Books": decimal.NewFromInt(25)}

	state := initialState(profile)

	byCategory, ok := state[keyCategorySpending].(map[string]decimal.Decimal)
	require.True(t, ok)
	assert.True(t, byCategory["Food"].Equal(decimal.NewFromInt(200)))
	assert.True(t, state[keyTotalSpending].(decimal.Decimal).Equal(decimal.NewFromInt(1700)))
	assert.True(t, state[keyTotalManualSpending].(decimal.Decimal).Equal(decimal.NewFromInt(75)))

	encoded, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"dependants":2`)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounded by text", input: `Sure! {"a":{"b":2}} Hope it helps.`, want: `{"a":{"b":2}}`},
		{name: "no object", input: `no json here`, want: ""},
		{name: "broken object", input: `{"a": }`, want: ""},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.input))
		})
	}
}
