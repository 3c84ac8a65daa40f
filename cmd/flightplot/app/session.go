package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/roman-kulish/flightplot/internal/catalog"
	"github.com/roman-kulish/flightplot/internal/figure"
	"github.com/roman-kulish/flightplot/internal/layout"
	"github.com/roman-kulish/flightplot/internal/selector"
	"github.com/roman-kulish/flightplot/internal/storage"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// Display shows a finished figure. It returns once the operator is done with
// it or ctx is cancelled.
type Display interface {
	Show(ctx context.Context, fig *figure.Figure) error
}

// WithLogger sets the logger for the session
func WithLogger(logger *slog.Logger) func(*Session) {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPrompter sets where group questions are asked
func WithPrompter(p selector.Prompter) func(*Session) {
	return func(s *Session) {
		s.prompter = p
	}
}

// WithPreset selects the named groups without prompting
func WithPreset(keys []string) func(*Session) {
	return func(s *Session) {
		s.preset = keys
	}
}

// WithArchive stores the loaded log in the archive before display
func WithArchive(store storage.Store) func(*Session) {
	return func(s *Session) {
		s.archive = store
	}
}

// WithTheme sets the figure colour theme
func WithTheme(theme figure.Theme) func(*Session) {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithSummaryWriter sets where the selection summary is printed
func WithSummaryWriter(w io.Writer) func(*Session) {
	return func(s *Session) {
		s.out = w
	}
}

// Session runs one load, select, plan, render and display pass over a log.
type Session struct {
	source   telemetry.Source
	display  Display
	prompter selector.Prompter
	preset   []string
	archive  storage.Store
	theme    figure.Theme
	out      io.Writer
	logger   *slog.Logger
}

func NewSession(source telemetry.Source, display Display, options ...func(*Session)) *Session {
	s := Session{
		source:   source,
		display:  display,
		prompter: selector.AssumeYes,
		theme:    figure.DefaultTheme,
		out:      io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *Session) Run(ctx context.Context) error {
	fig, err := s.Build(ctx)
	if err != nil {
		return err
	}

	if err = s.display.Show(ctx, fig); err != nil {
		return fmt.Errorf("displaying figure: %w", err)
	}
	return nil
}

// Build runs every step up to display and returns the rendered figure.
func (s *Session) Build(ctx context.Context) (*figure.Figure, error) {
	log, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("decoding log %q: %w", s.source.Describe(), err)
	}

	// Archived sources only know their name once loaded
	name := s.source.Describe()
	if err = log.Validate(); err != nil {
		return nil, fmt.Errorf("validating log %q: %w", name, err)
	}

	names := log.Names()
	candidates := catalog.Detect(names)
	overviews := catalog.DetectOverviews(names)

	s.logger.Debug("detected channel groups",
		slog.Int("channels", len(names)),
		slog.Int("candidates", len(catalog.Present(candidates))),
		slog.Int("overviews", len(overviews)))

	sel, err := s.selectGroups(ctx, candidates, overviews)
	if err != nil {
		return nil, err
	}

	plan := layout.Plan(sel)
	fig := figure.New(name, plan.TotalRows(), plan.Cols, figure.WithTheme(s.theme))

	for _, p := range plan.Panels {
		if err = figure.RenderPanel(fig, p, log); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", p.Group.Name, err)
		}
	}
	for _, e := range plan.Extras {
		if err = figure.RenderOverview(fig, e, log); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", e.Overview.Name, err)
		}
	}

	s.logger.Info("rendered figure",
		slog.Int("rows", fig.Rows),
		slog.String("samples", humanize.Comma(int64(fig.Samples()))))

	if err = printSummary(s.out, plan); err != nil {
		return nil, err
	}

	if err = s.archiveLog(ctx, name, log); err != nil {
		return nil, err
	}

	return fig, nil
}

func (s *Session) selectGroups(ctx context.Context, candidates []catalog.Candidate, overviews []catalog.Overview) (selector.Selection, error) {
	if len(s.preset) > 0 {
		sel, err := selector.Preset(candidates, overviews, s.preset)
		if err != nil {
			return sel, fmt.Errorf("selecting groups: %w", err)
		}
		return sel, nil
	}

	sel, err := selector.Select(ctx, candidates, s.prompter)
	if err != nil {
		return sel, fmt.Errorf("selecting groups: %w", err)
	}

	if sel.Overviews, err = selector.SelectOverviews(ctx, overviews, s.prompter); err != nil {
		return sel, fmt.Errorf("selecting overviews: %w", err)
	}
	return sel, nil
}

func (s *Session) archiveLog(ctx context.Context, name string, log *telemetry.Log) error {
	if s.archive == nil {
		return nil
	}

	source := name
	id, err := s.archive.StoreLog(ctx, name, &source, log)
	if err != nil {
		return fmt.Errorf("archiving log: %w", err)
	}

	pterm.Success.WithWriter(s.out).Printfln("Archived %s as log %d", name, id)
	return nil
}
