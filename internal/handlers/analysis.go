package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"example.com/ai-finance-coach/backend/internal/auth"
	"example.com/ai-finance-coach/backend/internal/csvimport"
	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/notifications"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
)

const (
	dataSourceCSV = "csv"

	msgAIUnavailable = "AI analysis is not available. Please check the AI provider API key configuration."
	msgAIFailed      = "AI analysis failed"
)

type AnalysisHandler struct {
	Orchestrator *orchestrator.Orchestrator
	Notifier     *notifications.Hub
	Logger       *logrus.Logger
}

// NewAnalysisHandler создает обработчик финансового анализа.
func NewAnalysisHandler(orch *orchestrator.Orchestrator, notifier *notifications.Hub, logger *logrus.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AnalysisHandler{
		Orchestrator: orch,
		Notifier:     notifier,
		Logger:       logger,
	}
}

// Analyze запускает анализ с AI и откатом на правила.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	return h.analyzeBody(c, orchestrator.ModeAuto)
}

// AnalyzeAI запускает анализ только через AI.
func (h *AnalysisHandler) AnalyzeAI(c echo.Context) error {
	return h.analyzeBody(c, orchestrator.ModeAIOnly)
}

// AnalyzeBasic запускает только rule-based анализ.
func (h *AnalysisHandler) AnalyzeBasic(c echo.Context) error {
	return h.analyzeBody(c, orchestrator.ModeRuleBased)
}

// UploadCSV разбирает выгрузку транзакций и анализирует ее в режиме auto.
func (h *AnalysisHandler) UploadCSV(c echo.Context) error {
	income, err := parseIncome(c.FormValue("monthly_income"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	dependants, err := parseDependants(c.FormValue("dependants"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "cannot read uploaded file")
	}
	defer file.Close()

	transactions, err := csvimport.Parse(file)
	if err != nil {
		var validationErr *csvimport.ValidationError
		if errors.As(err, &validationErr) {
			return badRequest(c, validationErr.Error())
		}
		h.Logger.WithError(err).Error("read uploaded csv")
		return badRequest(c, "cannot read uploaded file")
	}

	profile := models.FinancialProfile{
		MonthlyIncome: income,
		Dependants:    dependants,
		Transactions:  transactions,
	}

	result, err := h.run(c, profile, orchestrator.ModeAuto)
	if err != nil {
		return h.analysisError(c, err)
	}

	result.Metadata.DataSource = dataSourceCSV
	return c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) analyzeBody(c echo.Context, mode orchestrator.Mode) error {
	profile, err := bindProfile(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.run(c, profile, mode)
	if err != nil {
		return h.analysisError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) run(c echo.Context, profile models.FinancialProfile, mode orchestrator.Mode) (models.AnalysisResult, error) {
	var observer orchestrator.RunObserver
	if userID, ok := auth.UserIDFromContext(c); ok && h.Notifier != nil {
		observer = h.Notifier.Observer(userID)
	}

	return h.Orchestrator.RunObserved(c.Request().Context(), profile, mode, observer)
}

func (h *AnalysisHandler) analysisError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrAIUnavailable):
		return serviceUnavailable(c, msgAIUnavailable)
	case errors.Is(err, orchestrator.ErrAIFailed):
		return badGateway(c, msgAIFailed, err.Error())
	default:
		h.Logger.WithError(err).Error("analysis failed")
		return serverError(c)
	}
}

func bindProfile(c echo.Context) (models.FinancialProfile, error) {
	var profile models.FinancialProfile
	err := bindRequest(c, &profile)
	return profile, err
}

func parseIncome(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, requestError{msg: "monthly_income is required"}
	}

	income, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, requestError{msg: "monthly_income must be a number"}
	}
	if income.IsNegative() {
		return decimal.Zero, requestError{msg: "monthly_income must not be negative"}
	}

	return income, nil
}

func parseDependants(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	dependants, err := strconv.Atoi(value)
	if err != nil || dependants < 0 {
		return 0, requestError{msg: "dependants must be a non-negative integer"}
	}

	return dependants, nil
}
