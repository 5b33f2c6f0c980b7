package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"decompdesk/internal/compile"
	"decompdesk/internal/diff"
	"decompdesk/internal/scratch"
	"decompdesk/internal/toolchain"
	"decompdesk/internal/tui"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <slug>",
		Short: "Compile a scratch with its local toolchain and diff the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
}

type compileReport struct {
	Slug        string       `json:"slug"`
	Outcome     string       `json:"outcome"`
	Toolchain   string       `json:"toolchain,omitempty"`
	Diagnostics string       `json:"diagnostics,omitempty"`
	Diff        *diff.Result `json:"diff,omitempty"`
	Match       string       `json:"match,omitempty"`
	Perfect     bool         `json:"perfect,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// compileSession ties one scratch to the registry and orchestrator so that
// compile and watch share the same path from workspace to outcome.
type compileSession struct {
	app  *app
	reg  *toolchain.Registry
	orch *compile.Orchestrator
	ws   *scratch.Workspace
}

func newCompileSession(a *app, slug string) (*compileSession, error) {
	ws, err := scratch.Open(a.paths.ScratchesDir, slug)
	if err != nil {
		return nil, err
	}
	if ws.Meta.Compiler == "" {
		return nil, fmt.Errorf("scratch %s has no compiler; run: decompdesk scratch init %s --compiler <version>", slug, slug)
	}
	pipeline, err := a.pipeline()
	if err != nil {
		return nil, err
	}
	reg := a.registry()
	return &compileSession{app: a, reg: reg, orch: a.orchestrator(reg, pipeline), ws: ws}, nil
}

// job resolves the scratch's compiler against the catalog, preferring an
// installed entry. An unknown version leaves the toolchain nil so the request
// routes remotely.
func (s *compileSession) job() compile.Job {
	if d, ok := s.reg.FindInstalled(s.ws.Meta.Compiler); ok {
		return s.ws.Job(&d)
	}
	if d, ok := s.reg.Lookup(s.ws.Meta.Compiler); ok {
		return s.ws.Job(&d)
	}
	s.app.logger.Printf("scratch %s: compiler %q not in catalog", s.ws.Slug, s.ws.Meta.Compiler)
	return s.ws.Job(nil)
}

// run performs one compile and records the score of a successful diff.
func (s *compileSession) run(ctx context.Context) (compileReport, compile.Outcome, error) {
	job := s.job()
	outcome, err := s.orch.RequestCompile(ctx, job)
	if err != nil {
		return compileReport{}, outcome, err
	}

	report := compileReport{
		Slug:        s.ws.Slug,
		Outcome:     outcome.Kind.String(),
		Diagnostics: outcome.Diagnostics,
	}
	if job.Toolchain != nil {
		report.Toolchain = job.Toolchain.Key()
	}
	switch outcome.Kind {
	case compile.OutcomeSucceeded:
		result := outcome.Diff
		report.Diff = &result
		report.Match = result.MatchPercent()
		report.Perfect = result.Perfect()
		if err := s.ws.RecordScore(result.CurrentScore, result.MaxScore); err != nil {
			s.app.logger.Printf("scratch %s: record score: %v", s.ws.Slug, err)
		}
	case compile.OutcomeFailed:
		if outcome.Err != nil {
			report.Error = outcome.Err.Error()
		}
	}
	return report, outcome, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := newCompileSession(a, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var status *tui.StatusWriter
	if !outputJSON && tui.IsTerminal(out) {
		status = tui.NewStatusWriter(out)
		status.Update(fmt.Sprintf("compiling %s with %s", session.ws.Slug, session.ws.Meta.Compiler))
		defer status.Stop()
	}

	report, outcome, err := session.run(cmd.Context())
	if err != nil {
		return err
	}
	if status != nil {
		status.Finish(fmt.Sprintf("%s %s", session.ws.Slug, report.Outcome))
	}

	if outputJSON {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printOutcome(out, session.ws.Meta.Compiler, outcome)
	}
	if outcome.Kind == compile.OutcomeFailed {
		return fmt.Errorf("compile %s: %w", session.ws.Slug, outcome.Err)
	}
	return nil
}

// printOutcome writes compiler diagnostics followed by the diff or the
// reason there is none.
func printOutcome(w io.Writer, compiler string, outcome compile.Outcome) {
	if outcome.Diagnostics != "" {
		fmt.Fprintln(w, outcome.Diagnostics)
	}
	switch outcome.Kind {
	case compile.OutcomeSucceeded:
		view := tui.DiffView{Color: tui.IsTerminal(w)}
		fmt.Fprint(w, view.Render(outcome.Diff))
		if outcome.Diff.Perfect() {
			fmt.Fprintln(w, "Perfect match.")
		}
	case compile.OutcomeNoLocalToolchain:
		fmt.Fprintf(w, "%s is not installed locally; compile this scratch remotely or run: decompdesk toolchains install %s\n", compiler, compiler)
	case compile.OutcomeFailed:
		var diffErr *diff.Error
		if errors.As(outcome.Err, &diffErr) {
			fmt.Fprintf(w, "diff failed: %v\n", diffErr)
		}
	}
}
