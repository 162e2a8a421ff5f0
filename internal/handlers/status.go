package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/ai-finance-coach/backend/internal/orchestrator"
)

const serviceName = "AI Financial Coach Backend API"

type StatusHandler struct {
	Orchestrator *orchestrator.Orchestrator
	Version      string
	now          func() time.Time
}

// NewStatusHandler создает обработчик служебных эндпоинтов.
func NewStatusHandler(orch *orchestrator.Orchestrator, version string) *StatusHandler {
	return &StatusHandler{
		Orchestrator: orch,
		Version:      version,
		now:          time.Now,
	}
}

type RootResponse struct {
	Message   string              `json:"message"`
	Status    string              `json:"status"`
	Version   string              `json:"version"`
	AIStatus  orchestrator.Status `json:"ai_status"`
	Endpoints map[string]string   `json:"endpoints"`
}

type ServiceStatusResponse struct {
	Timestamp          time.Time           `json:"timestamp"`
	Service            orchestrator.Status `json:"service"`
	EndpointsAvailable EndpointsAvailable  `json:"endpoints_available"`
}

type EndpointsAvailable struct {
	AIAnalysis    bool `json:"ai_analysis"`
	BasicAnalysis bool `json:"basic_analysis"`
	CSVUpload     bool `json:"csv_upload"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type ChatResponse struct {
	Response     string   `json:"response"`
	AIAvailable  bool     `json:"ai_available"`
	Capabilities []string `json:"capabilities"`
}

var chatCapabilities = []string{
	"Budget Analysis",
	"Savings Strategy",
	"Debt Reduction Planning",
	"Financial Insights",
	"CSV Transaction Analysis",
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Root возвращает описание сервиса и список эндпоинтов.
func (h *StatusHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Message:  serviceName,
		Status:   "running",
		Version:  h.Version,
		AIStatus: h.Orchestrator.Status(),
		Endpoints: map[string]string{
			"analyze":        "/analyze (AI + fallback)",
			"analyze_ai":     "/analyze-ai (AI only)",
			"analyze_basic":  "/analyze-basic (rule-based)",
			"upload_csv":     "/upload-csv",
			"export_csv":     "/export-csv",
			"export":         "/export?format=json|yaml|csv",
			"chat":           "/chat",
			"service_status": "/service-status",
			"health":         "/health",
		},
	})
}

// ServiceStatus сообщает, доступен ли AI-анализ.
func (h *StatusHandler) ServiceStatus(c echo.Context) error {
	status := h.Orchestrator.Status()
	return c.JSON(http.StatusOK, ServiceStatusResponse{
		Timestamp: h.now().UTC(),
		Service:   status,
		EndpointsAvailable: EndpointsAvailable{
			AIAnalysis:    status.AIAvailable,
			BasicAnalysis: true,
			CSVUpload:     true,
		},
	})
}

// Chat отвечает заглушкой коуча с учетом доступности AI.
func (h *StatusHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	available := h.Orchestrator.Status().AIAvailable
	mode := "rule-based analysis"
	if available {
		mode = "AI-powered analysis"
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response: fmt.Sprintf("Hello! I'm your AI Financial Coach with %s. Please use the finance form to get a detailed analysis of your financial situation. "+
			"I can provide budget analysis, savings strategies, and debt reduction plans. The interactive chat feature is coming soon!", mode),
		AIAvailable:  available,
		Capabilities: chatCapabilities,
	})
}

// Health возвращает простой статус сервиса.
func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Services: map[string]string{
			"api":      "operational",
			"analysis": "operational",
		},
	})
}
