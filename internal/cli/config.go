package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"decompdesk/internal/config"
	"decompdesk/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the decompdesk configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigEditCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the home directory layout and a default config.yaml",
		RunE:  runConfigInit,
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open config.yaml in $EDITOR",
		RunE:  runConfigEdit,
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report problems in the effective configuration",
		RunE:  runConfigValidate,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if outputJSON {
		return writeJSON(cmd, a.cfg)
	}
	data, err := a.cfg.Marshal()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.cfg.Validate()
	if outputJSON {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	} else if len(results) == 0 {
		cmd.Println("Configuration OK")
	} else {
		for _, r := range results {
			cmd.Printf("%-7s %s\n", r.Level+":", r.Message)
		}
	}
	if config.HasErrors(results) {
		return fmt.Errorf("configuration has errors")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(homeDir)
	if err != nil {
		return err
	}
	if err := pp.EnsureDirs(); err != nil {
		return err
	}
	created, err := ensureConfigFileExists(pp)
	if err != nil {
		return err
	}
	if created {
		cmd.Printf("Wrote %s\n", pp.ConfigFile)
	} else {
		cmd.Printf("%s already exists\n", pp.ConfigFile)
	}
	cmd.Printf("Place asm-differ's diff.py in %s\n", pp.DiffToolDir)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(homeDir)
	if err != nil {
		return err
	}
	if _, err := ensureConfigFileExists(pp); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	parts = append(parts, pp.ConfigFile)

	execCmd := exec.CommandContext(cmd.Context(), parts[0], parts[1:]...)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	execCmd.Stdin = cmd.InOrStdin()
	execCmd.Dir = pp.Home

	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

// ensureConfigFileExists writes the default config when none exists and
// reports whether it did.
func ensureConfigFileExists(pp paths.Paths) (bool, error) {
	if _, err := os.Stat(pp.ConfigFile); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := config.Default().Save(pp.ConfigFile); err != nil {
		return false, err
	}
	return true, nil
}
