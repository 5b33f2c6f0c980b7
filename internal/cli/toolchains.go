package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"decompdesk/internal/toolchain"
	"decompdesk/internal/tui"
)

var (
	installForce      bool
	listOnlyInstalled bool
	listPlatform      string
)

func newToolchainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "toolchains",
		Aliases: []string{"tc"},
		Short:   "Manage locally installed compiler toolchains",
	}

	cmd.AddCommand(newToolchainsListCmd())
	cmd.AddCommand(newToolchainsInstallCmd())
	cmd.AddCommand(newToolchainsUninstallCmd())

	return cmd
}

func newToolchainsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known toolchains and whether they are installed",
		Args:  cobra.NoArgs,
		RunE:  runToolchainsList,
	}
	cmd.Flags().BoolVar(&listOnlyInstalled, "installed", false, "Only list installed toolchains")
	cmd.Flags().StringVar(&listPlatform, "platform", "", "Only list toolchains for this platform")
	return cmd
}

type toolchainEntry struct {
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	Installed   bool   `json:"installed"`
	Dir         string `json:"dir,omitempty"`
	InstalledAt string `json:"installed_at,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
	DownloadURL string `json:"download_url"`
}

func runToolchainsList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	reg := a.registry()

	if listPlatform != "" {
		if err := checkPlatform(reg, listPlatform); err != nil {
			return err
		}
	}

	var entries []toolchainEntry
	for _, d := range reg.ListAll() {
		if listPlatform != "" && d.Platform != listPlatform {
			continue
		}
		entry := toolchainEntry{
			Platform:    d.Platform,
			Version:     d.Version,
			Installed:   reg.IsInstalled(d),
			DownloadURL: d.DownloadURL,
		}
		if listOnlyInstalled && !entry.Installed {
			continue
		}
		if entry.Installed {
			entry.Dir = reg.Dir(d)
			if rec, ok := reg.Record(d); ok {
				entry.InstalledAt = rec.InstalledAt.Local().Format("2006-01-02 15:04")
				entry.SHA256 = rec.SHA256
			}
		}
		entries = append(entries, entry)
	}

	if outputJSON {
		return writeJSON(cmd, entries)
	}

	cmd.Printf("%-8s %-10s %-10s %s\n", "Platform", "Version", "Status", "Installed at")
	for _, e := range entries {
		status := "missing"
		if e.Installed {
			status = "installed"
		}
		cmd.Printf("%-8s %-10s %-10s %s\n", e.Platform, e.Version, status, tui.NonEmptyOrDash(e.InstalledAt))
	}
	return nil
}

func newToolchainsInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <version...|all>",
		Short: "Download and install toolchains",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runToolchainsInstall,
	}
	cmd.Flags().BoolVar(&installForce, "force", false, "Reinstall toolchains that are already installed")
	return cmd
}

func newToolchainsUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <version...>",
		Short: "Remove installed toolchains",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runToolchainsUninstall,
	}
}

// checkPlatform rejects platforms that no catalog entry targets.
func checkPlatform(reg *toolchain.Registry, platform string) error {
	known := toolchain.Platforms(reg.ListAll())
	for _, p := range known {
		if p == platform {
			return nil
		}
	}
	return fmt.Errorf("unknown platform %q (known: %s)", platform, joinComma(known))
}

// resolveDescriptors maps version arguments to catalog entries. "all"
// selects the whole catalog; any unknown version fails the batch before work
// starts.
func resolveDescriptors(reg *toolchain.Registry, args []string) ([]toolchain.Descriptor, error) {
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			return reg.ListAll(), nil
		}
	}
	var (
		out     []toolchain.Descriptor
		unknown []string
	)
	for _, arg := range args {
		d, ok := reg.Lookup(arg)
		if !ok {
			unknown = append(unknown, arg)
			continue
		}
		out = append(out, d)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown toolchain version(s): %s", joinComma(unknown))
	}
	return out, nil
}

// installReport is the outcome of installing one toolchain.
type installReport struct {
	Platform string `json:"platform"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Format   string `json:"format,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
	Dir      string `json:"dir,omitempty"`
	Error    string `json:"error,omitempty"`
}

// installer downloads and installs descriptors one at a time.
type installer struct {
	reg   *toolchain.Registry
	fetch func(key string) toolchain.Fetcher
	force bool
	// update receives row changes keyed by Descriptor.Key.
	update func(key string, fields map[string]string)
}

func (in installer) run(ctx context.Context, descs []toolchain.Descriptor) ([]installReport, error) {
	var (
		reports []installReport
		errs    []error
	)
	for _, d := range descs {
		report, err := in.installOne(ctx, d)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Version, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return reports, errors.Join(errs...)
}

func (in installer) installOne(ctx context.Context, d toolchain.Descriptor) (installReport, error) {
	report := installReport{Platform: d.Platform, Version: d.Version}
	key := d.Key()

	if !in.force && in.reg.IsInstalled(d) {
		report.Status = "skipped"
		report.Dir = in.reg.Dir(d)
		in.notify(key, report.Status, "already installed")
		return report, nil
	}

	in.notify(key, "downloading", d.DownloadURL)
	download, err := in.fetch(key).Fetch(ctx, d.DownloadURL)
	if err != nil {
		return in.fail(report, err), err
	}

	in.notify(key, "extracting", download.ContentType)
	result, err := in.reg.Install(d, download.Bytes, download.ContentType)
	if err != nil {
		return in.fail(report, err), err
	}

	report.Status = "installed"
	report.Format = string(result.Format)
	report.Bytes = result.Bytes
	report.Dir = result.Dir
	detail := fmt.Sprintf("%s, %s", result.Format, tui.FormatBytes(int64(result.Bytes)))
	if result.Raw {
		report.Status = "raw"
		detail = fmt.Sprintf("stored unextracted (%s)", download.ContentType)
	}
	in.notify(key, report.Status, detail)
	return report, nil
}

func (in installer) fail(report installReport, err error) installReport {
	report.Status = "error"
	report.Error = err.Error()
	in.notify(report.Platform+"/"+report.Version, report.Status, err.Error())
	return report
}

func (in installer) notify(key, status, detail string) {
	if in.update != nil {
		in.update(key, map[string]string{"STATUS": status, "DETAIL": detail})
	}
}

func runToolchainsInstall(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	reg := a.registry()

	descs, err := resolveDescriptors(reg, args)
	if err != nil {
		return err
	}

	in := installer{reg: reg, force: installForce}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var (
		reports []installReport
		runErr  error
	)
	switch tui.DetectMode(out, false, outputJSON) {
	case tui.ModeTUI:
		model := tui.NewProgressModel("Installing toolchains", []tui.Column{
			{Header: "VERSION", Width: 10},
			{Header: "STATUS", Width: 12},
			{Header: "PROGRESS", Width: 20},
			{Header: "DETAIL", Width: 48},
		})
		for _, d := range descs {
			model.AddRow(d.Key(), []string{d.Version, "pending", "", ""})
		}
		err := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
			in.update = func(key string, fields map[string]string) {
				send(tui.RowUpdateMsg{Key: key, Fields: fields})
			}
			in.fetch = func(key string) toolchain.Fetcher {
				return a.fetcher(tui.ProgressReporter(send, key))
			}
			reports, runErr = in.run(ctx, descs)
		})
		if err != nil {
			return err
		}
	case tui.ModeJSON:
		in.fetch = func(string) toolchain.Fetcher { return a.fetcher(nil) }
		reports, runErr = in.run(ctx, descs)
		if err := writeJSON(cmd, reports); err != nil {
			return err
		}
	default:
		in.fetch = func(string) toolchain.Fetcher { return a.fetcher(nil) }
		in.update = func(key string, fields map[string]string) {
			cmd.Printf("%-16s %-12s %s\n", key, fields["STATUS"], fields["DETAIL"])
		}
		reports, runErr = in.run(ctx, descs)
	}

	a.logger.Printf("install batch: %d toolchains, err=%v", len(reports), runErr)
	return runErr
}

func runToolchainsUninstall(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	reg := a.registry()

	descs, err := resolveDescriptors(reg, args)
	if err != nil {
		return err
	}

	type uninstallReport struct {
		Version string `json:"version"`
		Removed bool   `json:"removed"`
		Error   string `json:"error,omitempty"`
	}
	var (
		reports []uninstallReport
		errs    []error
	)
	for _, d := range descs {
		wasInstalled := reg.IsInstalled(d)
		report := uninstallReport{Version: d.Version}
		if err := reg.Uninstall(d); err != nil {
			report.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", d.Version, err))
		} else {
			report.Removed = wasInstalled
		}
		reports = append(reports, report)
	}

	if outputJSON {
		if err := writeJSON(cmd, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			switch {
			case r.Error != "":
				cmd.Printf("%-10s error: %s\n", r.Version, r.Error)
			case r.Removed:
				cmd.Printf("%-10s removed\n", r.Version)
			default:
				cmd.Printf("%-10s not installed\n", r.Version)
			}
		}
	}
	return errors.Join(errs...)
}
