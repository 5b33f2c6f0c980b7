package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"decompdesk/internal/config"
	"decompdesk/internal/paths"
	"decompdesk/internal/toolchain"
	"decompdesk/internal/tools"
)

var doctorFix bool

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host tools, diff.py and installed toolchains",
		RunE:  runDoctor,
	}
	cmd.Flags().BoolVar(&doctorFix, "fix", false, "Create the python virtualenv and install missing packages")
	return cmd
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		// Nothing else can be checked without a readable config.
		return writeDoctorResult(cmd, homeDir, []healthCheck{checkConfig(config.Config{}, err)})
	}
	defer a.Close()

	ctx := cmd.Context()
	checker := tools.NewChecker(a.cfg.Diff.Python)

	if doctorFix {
		if err := fixPython(cmd, a.paths, &checker); err != nil {
			return err
		}
	}

	var checks []healthCheck
	checks = append(checks, checkHome(a.paths))
	checks = append(checks, checkTools(checker.Detect(ctx)))
	checks = append(checks, checkConfig(a.cfg, nil))
	checks = append(checks, checkDiffTool(a.paths.DiffToolDir))
	missing, pipErr := checker.MissingPythonPackages(ctx)
	checks = append(checks, checkPythonPackages(missing, pipErr))
	checks = append(checks, checkToolchains(a.registry()))

	return writeDoctorResult(cmd, a.paths.Home, checks)
}

// fixPython creates the virtualenv when absent, points checker at it and
// installs whatever diff.py still needs.
func fixPython(cmd *cobra.Command, pp paths.Paths, checker *tools.Checker) error {
	ctx := cmd.Context()
	out := cmd.ErrOrStderr()

	exists, err := paths.FileExists(pp.VenvPython())
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "Creating virtualenv at %s\n", pp.VenvDir)
		if err := checker.CreateVenv(ctx, pp.VenvDir); err != nil {
			return err
		}
	}
	checker.Python = pp.VenvPython()

	missing, err := checker.MissingPythonPackages(ctx)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	fmt.Fprintf(out, "Installing %s\n", joinComma(missing))
	return checker.InstallPythonPackages(ctx, missing)
}

func checkHome(pp paths.Paths) healthCheck {
	exists, err := paths.DirExists(pp.Home)
	if err != nil {
		return healthCheck{Name: "Home", Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: "Home", Status: "warning", Summary: "missing (run: decompdesk config init)"}
	}
	return healthCheck{Name: "Home", Status: "ok", Summary: pp.Home}
}

func checkTools(statuses []tools.Status) healthCheck {
	if len(statuses) == 0 {
		return healthCheck{Name: "Tools", Status: "ok", Summary: "none required"}
	}
	var satisfied, total int
	var toolInfo []string
	for _, st := range statuses {
		total++
		if st.Satisfied {
			satisfied++
			label := st.Tool
			if st.Version != "" {
				label += " " + st.Version
			}
			toolInfo = append(toolInfo, label)
		}
	}

	if tools.Satisfied(statuses) {
		return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(toolInfo)}
	}
	return healthCheck{
		Name:    "Tools",
		Status:  "error",
		Summary: fmt.Sprintf("%d of %d tools satisfied", satisfied, total),
	}
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errors int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	summary := fmt.Sprintf("exchange %s, debounce %s", cfg.Diff.Exchange, cfg.Debounce())
	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkDiffTool(dir string) healthCheck {
	if err := tools.CheckDiffTool(dir); err != nil {
		return healthCheck{Name: "Diff tool", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Diff tool", Status: "ok", Summary: dir}
}

func checkPythonPackages(missing []string, err error) healthCheck {
	if err != nil {
		return healthCheck{Name: "Python", Status: "error", Summary: err.Error()}
	}
	if len(missing) > 0 {
		return healthCheck{
			Name:    "Python",
			Status:  "warning",
			Summary: fmt.Sprintf("missing %s (run: decompdesk doctor --fix)", joinComma(missing)),
		}
	}
	return healthCheck{Name: "Python", Status: "ok", Summary: joinComma(tools.PythonRequirements)}
}

func checkToolchains(reg *toolchain.Registry) healthCheck {
	installed := reg.Installed()
	total := len(reg.ListAll())
	if len(installed) == 0 {
		return healthCheck{
			Name:    "Toolchains",
			Status:  "warning",
			Summary: fmt.Sprintf("none of %d installed; scratches will compile remotely", total),
		}
	}
	var names []string
	for _, d := range installed {
		names = append(names, d.Version)
	}
	return healthCheck{
		Name:    "Toolchains",
		Status:  "ok",
		Summary: fmt.Sprintf("%d of %d installed: %s", len(installed), total, joinComma(names)),
	}
}

func writeDoctorResult(cmd *cobra.Command, home string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("DECOMPDESK HEALTH:")+" "+home)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
