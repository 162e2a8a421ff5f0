package notifications

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
		return Event{}
	}
}

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: EventAnalysisStarted})

	event := receive(t, ch)
	if event.Type != EventAnalysisStarted {
		t.Fatalf("expected event type %s, got %s", EventAnalysisStarted, event.Type)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

// TestHubIsolatesUsers проверяет, что события не уходят чужим подписчикам.
func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	owner, other := uuid.New(), uuid.New()

	ch, unsubscribe := hub.Subscribe(other)
	defer unsubscribe()

	hub.Publish(owner, Event{Type: EventAnalysisStarted})

	select {
	case event := <-ch:
		t.Fatalf("unexpected event %s for another user", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if n := hub.Subscribers(userID); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

// TestHubDropsWhenBufferFull проверяет, что Publish не блокируется.
func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(userID, Event{Type: EventAnalysisStage})
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, len(ch))
	}
}

// TestAnalysisObserver проверяет события хода анализа.
func TestAnalysisObserver(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	observer := hub.Observer(userID)
	observer.Started(orchestrator.ModeAuto)
	observer.Stage("BudgetAnalysisAgent")
	observer.Completed(models.AnalysisMetadata{PoweredBy: models.PoweredByAI, SessionID: "finance_session_1"})
	observer.Failed(errors.New("boom"))

	started := receive(t, ch)
	if data, ok := started.Data.(StartedData); !ok || data.Mode != "auto" {
		t.Fatalf("unexpected started event %+v", started)
	}

	stage := receive(t, ch)
	if data, ok := stage.Data.(StageData); !ok || stage.Type != EventAnalysisStage || data.Agent != "BudgetAnalysisAgent" {
		t.Fatalf("unexpected stage event %+v", stage)
	}

	completed := receive(t, ch)
	data, ok := completed.Data.(CompletedData)
	if !ok || completed.Type != EventAnalysisCompleted {
		t.Fatalf("unexpected completed event %+v", completed)
	}
	if data.PoweredBy != models.PoweredByAI || data.SessionID != "finance_session_1" {
		t.Fatalf("unexpected completed data %+v", data)
	}

	failed := receive(t, ch)
	if fd, ok := failed.Data.(FailedData); !ok || fd.Error != "boom" {
		t.Fatalf("unexpected failed event %+v", failed)
	}
}
