// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/daleview/pool-finance/internal/forecast"
	"github.com/daleview/pool-finance/pkg/format"
	"github.com/daleview/pool-finance/pkg/mathutil"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []forecast.Forecast) {
	for i, result := range results {
		fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name)
		fmt.Fprintf(w, "Future revenue:          %s\n", format.Currency(result.FutureRevenue))
		fmt.Fprintf(w, "Member assessment:       %s (%s)\n",
			format.Currency(result.Funding.TotalAssessment), format.Percent(result.Funding.AssessmentPercent))
		fmt.Fprintf(w, "Member bonds:            %s (%s)\n",
			format.Currency(result.Funding.BondFunding), format.Percent(result.Funding.BondPercent))
		fmt.Fprintf(w, "Commercial loan:         %s (%s)\n",
			format.Currency(result.Funding.RemainingToFinance), format.Percent(result.Funding.CommercialLoanPercent))
		fmt.Fprintf(w, "Annual debt service:     %s (%s monthly)\n",
			format.CurrencyCents(result.Plan.CombinedAnnualDebtService), format.CurrencyCents(result.MonthlyDebtService))
		fmt.Fprintf(w, "Total borrowing cost:    %s\n", format.Currency(result.Plan.CombinedBorrowingCost))
		fmt.Fprintf(w, "Current surplus:         %s\n", format.Currency(result.CurrentSurplus))
		fmt.Fprintf(w, "Post-renovation surplus: %s\n", format.Currency(result.FutureSurplus))
		if result.Message != "" {
			fmt.Fprintf(w, "%s\n", result.Message)
		}

		fmt.Fprintf(w, "Year    | Revenue       | Expenses      | Debt Service  | Debt %% | Surplus\n")
		fmt.Fprintf(w, "____    | _____________ | _____________ | _____________ | ______ | _____________\n")
		for _, row := range result.Projections {
			fmt.Fprintf(w, "%-7s | %13s | %13s | %13s | %6s | %13s\n",
				format.YearLabel(row.YearIndex),
				format.Currency(row.ProjectedRevenue),
				format.Currency(row.ProjectedExpenses),
				format.Currency(row.DebtService),
				format.Percent(row.DebtServicePercentOfCost),
				format.Currency(row.OperatingSurplus))
		}

		if len(result.Optimizations) > 0 {
			fmt.Fprintf(w, "Optimization adjustments:\n")
			for _, summary := range result.Optimizations {
				status := "break-even"
				if !summary.Converged {
					status = "not reachable"
				}
				fmt.Fprintf(w, "  %s: %s -> %s (%s, worst-year surplus %s)\n",
					summary.Field, summary.OriginalDisplay, summary.ValueDisplay,
					status, format.Currency(summary.MinimumSurplus))
				for _, note := range summary.Notes {
					fmt.Fprintf(w, "    %s\n", note)
				}
			}
		}

		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "WARNING: %s\n", warning)
		}
		if len(results) > 1 && i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

var csvHeader = []string{
	"scenario", "year", "revenue", "expenses", "debt service",
	"debt service percent", "operating surplus",
}

// CsvFormat writes one comma-separated row per scenario and key year.
func CsvFormat(w io.Writer, results []forecast.Forecast) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		for _, row := range result.Projections {
			record := []string{
				result.Name,
				strconv.Itoa(row.YearIndex),
				money(row.ProjectedRevenue),
				money(row.ProjectedExpenses),
				money(row.DebtService),
				strconv.FormatFloat(row.DebtServicePercentOfCost, 'f', 2, 64),
				money(row.OperatingSurplus),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString renders results the same way CsvFormat does.
func CsvString(results []forecast.Forecast) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// JSONFormat writes the results as indented JSON.
func JSONFormat(w io.Writer, results []forecast.Forecast) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func money(value float64) string {
	return strconv.FormatFloat(mathutil.Round(value), 'f', 2, 64)
}
