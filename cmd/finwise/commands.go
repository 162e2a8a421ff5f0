package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"example.com/ai-finance-coach/backend/internal/csvimport"
	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/report"
	"example.com/ai-finance-coach/backend/internal/validation"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a financial profile stored as JSON or YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := readProfile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return a.analyze(cmd, profile, "")
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "profile file (.json, .yaml) or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		file       string
		income     string
		dependants int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Analyze a CSV export with Date, Category and Amount columns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			monthlyIncome, err := decimal.NewFromString(strings.TrimSpace(income))
			if err != nil || monthlyIncome.IsNegative() {
				return fmt.Errorf("--income must be a non-negative number")
			}
			if dependants < 0 {
				return fmt.Errorf("--dependants must not be negative")
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			transactions, err := csvimport.Parse(f)
			if err != nil {
				return err
			}

			a.log.WithField("transactions", len(transactions)).Debug("csv imported")

			return a.analyze(cmd, models.FinancialProfile{
				MonthlyIncome: monthlyIncome,
				Dependants:    dependants,
				Transactions:  transactions,
			}, "csv")
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with transactions")
	cmd.Flags().StringVar(&income, "income", "", "monthly income")
	cmd.Flags().IntVar(&dependants, "dependants", 0, "number of dependants")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether AI analysis is available",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(a.format)
			if err != nil {
				return err
			}

			status := a.orchestrator.Status()
			out := cmd.OutOrStdout()
			switch format {
			case report.FormatYAML:
				return yaml.NewEncoder(out).Encode(status)
			case report.FormatCSV:
				_, err := fmt.Fprintf(out, "ai_available,api_key_configured,provider,model,service_type\n%t,%t,%s,%s,%s\n",
					status.AIAvailable, status.APIKeyConfigured, status.Provider, status.Model, status.ServiceType)
				return err
			default:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(status)
			}
		},
	}
}

func (a *app) analyze(cmd *cobra.Command, profile models.FinancialProfile, dataSource string) error {
	mode, err := orchestrator.ParseMode(a.mode)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(a.format)
	if err != nil {
		return err
	}

	result, err := a.orchestrator.Run(cmd.Context(), profile, mode)
	if err != nil {
		return err
	}
	if dataSource != "" {
		result.Metadata.DataSource = dataSource
	}

	out := cmd.OutOrStdout()
	if a.output != "" {
		f, err := os.Create(a.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return report.Render(out, result, format)
}

// readProfile читает профиль из файла; формат определяется по расширению.
func readProfile(stdin io.Reader, path string) (models.FinancialProfile, error) {
	var profile models.FinancialProfile

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return profile, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &profile)
	default:
		err = json.Unmarshal(data, &profile)
	}
	if err != nil {
		return profile, fmt.Errorf("decode profile %s: %w", path, err)
	}

	if err := validation.New().Struct(profile); err != nil {
		return profile, fmt.Errorf("invalid profile: %w", err)
	}

	return profile, nil
}
