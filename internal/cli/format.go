package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCatalog prints the modules as a table followed by the strategy weights.
func printCatalog(out io.Writer, c analysis.Catalog) error {
	rows := make([][]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		rows = append(rows, []string{string(m.Name), m.Endpoint, m.Description})
	}
	if err := printTable(out, []string{"MODULE", "ENDPOINT", "DESCRIPTION"}, rows); err != nil {
		return err
	}

	fmt.Fprintln(out)
	rows = rows[:0]
	for _, s := range []types.Strategy{types.StrategyGrowth, types.StrategyHold, types.StrategyDivest} {
		w, ok := c.Strategies[s]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(s),
			pct(w.Lease), pct(w.Occupancy), pct(w.NOI), pct(w.Energy),
			pct(w.Capex), pct(w.Sustainability), pct(w.Market)})
	}
	return printTable(out, []string{"STRATEGY", "LEASE", "OCC", "NOI", "ENERGY", "CAPEX", "SUST", "MARKET"}, rows)
}

// printRun prints a run summary followed by a module-specific table.
func printRun(out io.Writer, run *analysis.Run) error {
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Module:   %s\n", run.Module)
	fmt.Fprintf(out, "  As of:    %s\n", run.AsOf.Time.Format("2006-01-02"))
	fmt.Fprintf(out, "  Risk:     %s\n", run.Summary.RiskLevel)
	fmt.Fprintf(out, "  Summary:  %s\n", run.Summary.Headline)
	if len(run.Summary.FlaggedProperties) > 0 {
		fmt.Fprintf(out, "  Flagged:  %s\n", strings.Join(run.Summary.FlaggedProperties, ", "))
	}
	fmt.Fprintln(out)

	switch res := run.Output.(type) {
	case types.PortfolioAnalysis:
		return printPortfolio(out, res)
	case types.TransactionAnalysis:
		return printTransactions(out, res)
	case types.PredictiveAnalysis:
		return printPredictive(out, res)
	case types.OccupancyAnalysis:
		return printOccupancy(out, res)
	case types.LeaseRiskAnalysis:
		return printLeaseRisk(out, res)
	default:
		return printJSON(out, res)
	}
}

func printPortfolio(out io.Writer, a types.PortfolioAnalysis) error {
	fmt.Fprintf(out, "Health %.1f (grade %s), strategy %s, suggested action %s\n\n",
		a.PortfolioHealth, a.PerformanceGrade, a.Strategy, a.Insights.SuggestedAction)
	rows := make([][]string, 0, len(a.PropertyScores))
	for _, s := range a.PropertyScores {
		rows = append(rows, []string{s.PropertyID,
			num(s.LeaseScore), num(s.OccupancyScore), num(s.NOIScore), num(s.EnergyScore),
			num(s.CapexScore), num(s.SustainabilityScore), num(s.MarketScore)})
	}
	if err := printTable(out, []string{"PROPERTY", "LEASE", "OCC", "NOI", "ENERGY", "CAPEX", "SUST", "MARKET"}, rows); err != nil {
		return err
	}
	printList(out, "Recommendations", a.Recommendations)
	return nil
}

func printTransactions(out io.Writer, a types.TransactionAnalysis) error {
	rep := a.ReconciliationReport
	fmt.Fprintf(out, "Reconciled %d of %d (%.1f%%); late %d, early %d, on time %d\n\n",
		rep.ReconciledCount, rep.TotalTransactions, rep.ReconciliationRate*100,
		rep.LatePayments, rep.EarlyPayments, rep.OnTimePayments)
	rows := make([][]string, 0, len(a.RiskScores))
	for _, r := range a.RiskScores {
		rows = append(rows, []string{r.TransactionID, r.PropertyID, num(r.RiskScore), string(r.RiskLevel), fmt.Sprint(r.DaysLate)})
	}
	if err := printTable(out, []string{"TRANSACTION", "PROPERTY", "SCORE", "LEVEL", "DAYS LATE"}, rows); err != nil {
		return err
	}
	printList(out, "Recommendations", rep.Recommendations)
	return nil
}

func printPredictive(out io.Writer, a types.PredictiveAnalysis) error {
	risk := make(map[string]types.RiskAssessment, len(a.RiskAssessments))
	for _, r := range a.RiskAssessments {
		risk[r.PropertyID] = r
	}
	rows := make([][]string, 0, len(a.Predictions))
	for _, p := range a.Predictions {
		r := risk[p.PropertyID]
		rows = append(rows, []string{p.PropertyID, pct(p.PredictedOccupancy), fmt.Sprintf("%.0f", p.PredictedValue),
			pct(p.GrowthRate), num(r.RiskScore), string(r.RiskLevel)})
	}
	if err := printTable(out, []string{"PROPERTY", "PRED OCC", "PRED VALUE", "GROWTH", "RISK", "LEVEL"}, rows); err != nil {
		return err
	}
	printList(out, "Recommendations", a.Recommendations)
	return nil
}

func printOccupancy(out io.Writer, a types.OccupancyAnalysis) error {
	m := a.EfficiencyMetrics
	fmt.Fprintf(out, "Overall utilization %s, average efficiency %.1f, vacant %.0f sq ft\n\n",
		pct(m.OverallUtilizationRate), m.AverageEfficiencyScore, m.TotalVacantSqFt)
	rows := make([][]string, 0, len(a.UtilizationScores))
	for _, u := range a.UtilizationScores {
		rows = append(rows, []string{u.PropertyID, pct(u.UtilizationRate), num(u.EfficiencyScore), string(u.Classification)})
	}
	if err := printTable(out, []string{"PROPERTY", "UTILIZATION", "EFFICIENCY", "CLASS"}, rows); err != nil {
		return err
	}
	alerts := make([]string, 0, len(a.ComplianceAlerts))
	for _, al := range a.ComplianceAlerts {
		alerts = append(alerts, fmt.Sprintf("[%s] %s: %s", al.Severity, al.PropertyID, al.Description))
	}
	printList(out, "Compliance alerts", alerts)
	printList(out, "Recommendations", a.OptimizationRecommendations)
	return nil
}

func printLeaseRisk(out io.Writer, a types.LeaseRiskAnalysis) error {
	actions := make(map[string]types.RecommendedAction, len(a.RecommendedActions))
	for _, act := range a.RecommendedActions {
		actions[act.PropertyID] = act
	}
	rows := make([][]string, 0, len(a.RiskScores))
	for _, r := range a.RiskScores {
		act := actions[r.PropertyID]
		rows = append(rows, []string{r.PropertyID, num(r.RiskScore), string(r.RiskLevel), act.RecommendedAction, act.Timeline})
	}
	if err := printTable(out, []string{"PROPERTY", "SCORE", "LEVEL", "ACTION", "TIMELINE"}, rows); err != nil {
		return err
	}
	printList(out, "Intervention priorities", a.InterventionPriorities)
	return nil
}

// printTable writes a header, a dashed separator and rows through a tabwriter.
func printTable(out io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No records.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}
	for _, line := range append([][]string{header, sep}, rows...) {
		if _, err := fmt.Fprintln(w, strings.Join(line, "\t")); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
	}
	return w.Flush()
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(out, "  - %s\n", it)
	}
}

func num(v float64) string { return fmt.Sprintf("%.1f", v) }

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }
