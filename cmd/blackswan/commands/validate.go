package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/internal/audit"
	"github.com/wonny/blackswan/backend/internal/contracts"
)

// validateProxyCmd represents the validate-proxy command
var validateProxyCmd = &cobra.Command{
	Use:   "validate-proxy",
	Short: "Measure fear index agreement with the prediction market",
	Long: `Scores known shocks with both the VIX fear index and the
prediction-market signal and reports how often they agree.

Example:
  go run ./cmd/blackswan validate-proxy
  go run ./cmd/blackswan validate-proxy --case "2023-03-13=SVB collapse"`,
	RunE: runValidateProxy,
}

var (
	proxyCases []string
	proxyJSON  bool
)

func init() {
	rootCmd.AddCommand(validateProxyCmd)

	validateProxyCmd.Flags().StringArrayVar(&proxyCases, "case", nil, "DATE=KEYWORD case, repeatable (default: built-in shocks)")
	validateProxyCmd.Flags().BoolVar(&proxyJSON, "json", false, "print the raw report as JSON")
}

// parseProxyCases turns DATE=KEYWORD flags into cases
func parseProxyCases(raw []string) ([]contracts.ProxyCase, error) {
	if len(raw) == 0 {
		return audit.DefaultProxyCases, nil
	}
	cases := make([]contracts.ProxyCase, 0, len(raw))
	for _, r := range raw {
		date, keyword, ok := strings.Cut(r, "=")
		if !ok || date == "" || keyword == "" {
			return nil, contracts.NewValidationError("case", fmt.Sprintf("%q must be DATE=KEYWORD", r))
		}
		cases = append(cases, contracts.ProxyCase{Date: date, Keyword: keyword})
	}
	return cases, nil
}

func runValidateProxy(cmd *cobra.Command, args []string) error {
	started := time.Now()

	cases, err := parseProxyCases(proxyCases)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.proxyValidator().Validate(cmd.Context(), cases)
	if err != nil {
		return err
	}
	if proxyJSON {
		return PrintJSON(report)
	}

	PrintHeader("Fear Index Proxy Validation", [][2]string{
		{"Cases", fmt.Sprintf("%d", len(cases))},
	})
	for _, c := range report.Cases {
		fmt.Printf("  %s %-40s fear %s  market %s  %s\n",
			c.Date, c.Keyword, scoreOrDash(c.FearIndexScore), scoreOrDash(c.MarketScore), agreementMark(c))
	}

	st := report.Statistics
	PrintSeparator()
	fmt.Printf("  Accuracy  : %.1f%% (%d/%d exact)\n", st.Accuracy, st.PerfectMatches, st.TotalTests)
	fmt.Printf("  Off by 1  : %d, off by 2: %d\n", st.OffByOne, st.OffByTwo)
	fmt.Printf("  Avg diff  : %.2f\n", st.AverageDifference)
	PrintSeparator()
	fmt.Printf("  %s\n  %s\n", report.Conclusion, report.Recommendation)

	PrintCompletion("Validation", started)
	return nil
}

func scoreOrDash(s *int) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *s)
}

func agreementMark(c contracts.ProxyComparison) string {
	if c.FearIndexScore == nil || c.MarketScore == nil {
		return "⚪"
	}
	if c.Agreement {
		return "✅"
	}
	return "❌"
}
