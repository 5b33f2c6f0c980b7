package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"decompdesk/internal/diff"
	"decompdesk/internal/tui"
)

var diffFrom string

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [<expected.o> <current.o> <symbol>]",
		Short: "Diff two objects, or render a saved compile response",
		Long: "Diff two object files for one symbol with diff.py, or render the diff\n" +
			"from a compile response saved from a remote server with --from.",
		RunE: runDiff,
	}
	cmd.Flags().StringVar(&diffFrom, "from", "", "Render a saved compile response instead of running diff.py")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	if diffFrom != "" {
		if len(args) != 0 {
			return fmt.Errorf("--from takes no positional arguments")
		}
		return renderSavedResponse(cmd, diffFrom)
	}
	if len(args) != 3 {
		return fmt.Errorf("expected <expected.o> <current.o> <symbol>, got %d argument(s)", len(args))
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}
	result, err := pipeline.CompareFiles(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	return renderDiff(cmd, result, "")
}

func renderSavedResponse(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read compile response: %w", err)
	}
	resp, err := diff.ParseCompileResponse(data)
	if err != nil {
		return err
	}
	if resp.Success {
		return renderDiff(cmd, resp.Diff, resp.CompilerOutput)
	}

	if outputJSON {
		if err := writeJSON(cmd, resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), resp.CompilerOutput)
	}
	return fmt.Errorf("remote compile failed")
}

func renderDiff(cmd *cobra.Command, result diff.Result, compilerOutput string) error {
	if outputJSON {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	if compilerOutput != "" {
		fmt.Fprintln(out, compilerOutput)
	}
	view := tui.DiffView{Color: tui.IsTerminal(out)}
	fmt.Fprint(out, view.Render(result))
	return nil
}
