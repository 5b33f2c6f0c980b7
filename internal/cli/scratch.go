package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"decompdesk/internal/scratch"
	"decompdesk/internal/toolchain"
)

var (
	scratchName     string
	scratchCompiler string
	scratchFlags    string
	scratchPlatform string
)

func newScratchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Create, import and list scratch workspaces",
	}

	cmd.AddCommand(newScratchInitCmd())
	cmd.AddCommand(newScratchImportCmd())
	cmd.AddCommand(newScratchListCmd())
	return cmd
}

func addScratchMetaFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scratchName, "name", "", "Symbol the scratch decompiles")
	cmd.Flags().StringVar(&scratchCompiler, "compiler", "", "Toolchain version, e.g. msvc6.0")
	cmd.Flags().StringVar(&scratchFlags, "flags", "", "Compiler flags")
	cmd.Flags().StringVar(&scratchPlatform, "platform", toolchain.PlatformWin32, "Target platform")
}

func newScratchInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <slug>",
		Short: "Create a scratch workspace or update its metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runScratchInit,
	}
	addScratchMetaFlags(cmd)
	return cmd
}

func newScratchImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <slug> <export.zip>",
		Short: "Unpack an exported scratch into a workspace",
		Args:  cobra.ExactArgs(2),
		RunE:  runScratchImport,
	}
	addScratchMetaFlags(cmd)
	return cmd
}

func newScratchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scratch workspaces",
		Args:  cobra.NoArgs,
		RunE:  runScratchList,
	}
}

// applyMetaFlags copies the flags the user set onto ws.Meta.
func applyMetaFlags(cmd *cobra.Command, ws *scratch.Workspace) {
	if cmd.Flags().Changed("name") {
		ws.Meta.Name = scratchName
	}
	if cmd.Flags().Changed("compiler") {
		ws.Meta.Compiler = scratchCompiler
	}
	if cmd.Flags().Changed("flags") {
		ws.Meta.CompilerFlags = scratchFlags
	}
	if cmd.Flags().Changed("platform") || ws.Meta.Platform == "" {
		ws.Meta.Platform = scratchPlatform
	}
}

func runScratchInit(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ws, err := scratch.Open(a.paths.ScratchesDir, args[0])
	if err != nil {
		return err
	}
	applyMetaFlags(cmd, ws)
	if err := ws.SaveMeta(); err != nil {
		return err
	}
	a.logger.Printf("scratch %s ready at %s", ws.Slug, ws.Dir)

	if outputJSON {
		return writeJSON(cmd, map[string]any{"dir": ws.Dir, "meta": ws.Meta})
	}
	cmd.Printf("Scratch %s ready at %s\n", ws.Slug, ws.Dir)
	cmd.Printf("Edit %s and %s, then run: decompdesk compile %s\n", scratch.ContextFile, scratch.SourceFile, ws.Slug)
	return nil
}

func runScratchImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	ws, err := scratch.Open(a.paths.ScratchesDir, args[0])
	if err != nil {
		return err
	}
	result, err := ws.ImportExport(data)
	if err != nil {
		return err
	}
	applyMetaFlags(cmd, ws)
	if err := ws.SaveMeta(); err != nil {
		return err
	}
	a.logger.Printf("imported %s into %s (asm=%v)", args[1], ws.Dir, result.HasAsm)

	if outputJSON {
		return writeJSON(cmd, map[string]any{"dir": ws.Dir, "meta": ws.Meta, "has_asm": result.HasAsm})
	}
	cmd.Printf("Imported %s into %s\n", args[1], ws.Dir)
	if !result.HasAsm {
		cmd.Printf("note: export has no %s\n", scratch.TargetAsm)
	}
	return nil
}

func runScratchList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	metas, err := scratch.List(a.paths.ScratchesDir)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, metas)
	}
	if len(metas) == 0 {
		cmd.Println("(no scratches)")
		return nil
	}
	cmd.Printf("%-16s %-24s %-10s %s\n", "Slug", "Name", "Compiler", "Score")
	for _, m := range metas {
		score := "-"
		if m.Score != nil && m.MaxScore != nil {
			score = fmt.Sprintf("%d/%d", *m.Score, *m.MaxScore)
		}
		cmd.Printf("%-16s %-24s %-10s %s\n", m.Slug, m.Name, m.Compiler, score)
	}
	return nil
}
