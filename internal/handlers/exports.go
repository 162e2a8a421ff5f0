package handlers

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/report"
)

const categoriesFilename = "spending-categories.csv"

var reportContentTypes = map[report.Format]string{
	report.FormatJSON: echo.MIMEApplicationJSONCharsetUTF8,
	report.FormatYAML: "application/yaml; charset=utf-8",
	report.FormatCSV:  "text/csv; charset=utf-8",
}

// ExportCSV выгружает категории расходов rule-based анализа в CSV.
func (h *AnalysisHandler) ExportCSV(c echo.Context) error {
	profile, err := bindProfile(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.Orchestrator.Run(c.Request().Context(), profile, orchestrator.ModeRuleBased)
	if err != nil {
		return h.analysisError(c, err)
	}

	var buf bytes.Buffer
	if err := report.WriteCategoriesCSV(&buf, result.BudgetAnalysis.SpendingCategories); err != nil {
		h.Logger.WithError(err).Error("render categories csv")
		return serverError(c)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+categoriesFilename+"\"")
	return c.Blob(http.StatusOK, reportContentTypes[report.FormatCSV], buf.Bytes())
}

// ExportReport выгружает полный rule-based отчет в формате из ?format=json|yaml|csv.
func (h *AnalysisHandler) ExportReport(c echo.Context) error {
	format, err := report.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	profile, err := bindProfile(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.Orchestrator.Run(c.Request().Context(), profile, orchestrator.ModeRuleBased)
	if err != nil {
		return h.analysisError(c, err)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, result, format); err != nil {
		h.Logger.WithError(err).WithField("format", format).Error("render report")
		return serverError(c)
	}

	filename := "financial-report." + string(format)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, reportContentTypes[format], buf.Bytes())
}
