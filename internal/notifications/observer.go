package notifications

import (
	"github.com/google/uuid"

	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
)

type StartedData struct {
	Mode string `json:"mode"`
}

type StageData struct {
	Agent string `json:"agent"`
}

type CompletedData struct {
	PoweredBy         models.PoweredBy `json:"powered_by"`
	SessionID         string           `json:"session_id,omitempty"`
	DefaultedSections []string         `json:"defaulted_sections,omitempty"`
}

type FailedData struct {
	Error string `json:"error"`
}

// AnalysisObserver публикует ход анализа в хаб пользователя.
type AnalysisObserver struct {
	hub    *Hub
	userID uuid.UUID
}

var _ orchestrator.RunObserver = (*AnalysisObserver)(nil)

// Observer возвращает наблюдателя за анализом для пользователя.
func (h *Hub) Observer(userID uuid.UUID) *AnalysisObserver {
	return &AnalysisObserver{hub: h, userID: userID}
}

func (o *AnalysisObserver) Started(mode orchestrator.Mode) {
	o.hub.Publish(o.userID, Event{Type: EventAnalysisStarted, Data: StartedData{Mode: string(mode)}})
}

func (o *AnalysisObserver) Stage(agent string) {
	o.hub.Publish(o.userID, Event{Type: EventAnalysisStage, Data: StageData{Agent: agent}})
}

func (o *AnalysisObserver) Completed(metadata models.AnalysisMetadata) {
	o.hub.Publish(o.userID, Event{Type: EventAnalysisCompleted, Data: CompletedData{
		PoweredBy:         metadata.PoweredBy,
		SessionID:         metadata.SessionID,
		DefaultedSections: metadata.DefaultedSections,
	}})
}

func (o *AnalysisObserver) Failed(err error) {
	o.hub.Publish(o.userID, Event{Type: EventAnalysisFailed, Data: FailedData{Error: err.Error()}})
}
