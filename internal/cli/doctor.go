package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/doctor"
	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/pkg/sshutil"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, router and agent connectivity",
	Long: `Check that the config loads, that the router counters can be read
over SSH and that every enabled remote agent answers.

Examples:
  fb4rasp doctor
  fb4rasp doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), doctorJSON)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	headStyle = lipgloss.NewStyle().Bold(true)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func doctorCommand(ctx context.Context, out io.Writer, asJSON bool) error {
	// A config that fails to load is reported by the config checks.
	cfg, _, _ := config.LoadOrDefault(cfgFile)
	var dial collect.DialFunc
	if cfg != nil {
		dial = collect.SSHDialer(sshutil.Options{
			Timeout:         cfg.Router.Timeout,
			InsecureHostKey: cfg.Router.InsecureHostKey,
			Logger:          logger.NewEnvLogger("[ssh]"),
		})
	}

	checks := doctor.NewChecks(cfgFile, cfg, dial)
	results := doctor.RunAllParallel(ctx, checks)

	var err error
	if asJSON {
		err = writeDoctorJSON(out, checks, results)
	} else {
		writeDoctorText(out, checks, results)
	}
	if err != nil {
		return err
	}
	if doctor.HasFailures(results) {
		return errors.New(errors.ErrConfig, doctor.Summary(results), "See the failed checks above")
	}
	return nil
}

// groupResults groups results by category in first-seen order.
func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	var groups []CategoryOutput
	index := make(map[string]int)
	for i, check := range checks {
		cat := check.Category()
		j, ok := index[cat]
		if !ok {
			j = len(groups)
			index[cat] = j
			groups = append(groups, CategoryOutput{Name: cat})
		}
		groups[j].Results = append(groups[j].Results, results[i])
	}
	return groups
}

func writeDoctorJSON(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func writeDoctorText(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	for _, group := range groupResults(checks, results) {
		fmt.Fprintln(out, headStyle.Render(group.Name))
		for _, r := range group.Results {
			fmt.Fprintf(out, "  %s %s\n", statusSymbol(r.Status), r.Message)
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				fmt.Fprintf(out, "    %s\n", hintStyle.Render(r.Suggestion))
			}
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, doctor.Summary(results))
}

func statusSymbol(s doctor.CheckStatus) string {
	switch s {
	case doctor.StatusPass:
		return passStyle.Render("✓")
	case doctor.StatusWarn:
		return warnStyle.Render("⚠")
	default:
		return failStyle.Render("✗")
	}
}
