package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/config"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/editor"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/logging"
	"github.com/runger/lineloop/internal/registry"
	"github.com/runger/lineloop/internal/session"
	"github.com/runger/lineloop/internal/status"
	"github.com/runger/lineloop/internal/term"
	"github.com/runger/lineloop/internal/tui"
)

// callbackDelay is how long the session waits before the first prompt
// when background callbacks are installed, so their first output lands
// before the prompt.
const callbackDelay = 2 * time.Second

// sessionConfig carries what runRoot resolved from the command line.
type sessionConfig struct {
	harness    *harness
	options    *builtins.Options
	colorOn    bool
	configPath string
	logLevel   string

	stdin  *os.File
	stdout *os.File
	stderr io.Writer
}

func loadConfig(path, level string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// runSession wires the session collaborators and runs the loop until the
// user leaves.
func runSession(ctx context.Context, sc sessionConfig) error {
	cfg, err := loadConfig(sc.configPath, sc.logLevel)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	h := sc.harness
	fmt.Fprintf(sc.stdout, "%s: %s\n", terminalName(sc.stdin, h.stream), term.Type())
	fmt.Fprintln(sc.stdout, "\nhelp: list available commands")

	size := func() (int, int) { return term.Size(sc.stdout.Fd()) }
	input := term.NewInput(sc.stdin, sc.stdout)
	defer func() { _ = input.Close() }()

	store := history.NewStore(cfg.HistorySize)
	vars := builtins.NewVars(map[string]string{
		builtins.VarIndentation:     strconv.Itoa(cfg.Indentation),
		builtins.VarSecondaryPrompt: cfg.SecondaryPromptPattern,
		builtins.VarTailTipRows:     strconv.Itoa(cfg.TailTipRows),
	})
	reg := registry.New()
	keymaps := builtins.NewKeymaps()

	region := status.NewRegion(sc.stdout, size, status.SlotTailTip, status.SlotCounter)

	ed, err := editor.New(editor.Config{
		Input:     input,
		Stdout:    sc.stdout,
		Stderr:    sc.stderr,
		Fd:        sc.stdin.Fd(),
		Size:      size,
		History:   store,
		Completer: sessionCompleter(reg, cfg, h),
		Parser:    h.parser,
		Describer: sessionDescriber(reg, h),
		Region:    region,
		Settings:  sc.options,
		Vars:      vars,
		Mouse:     h.mouse,
		Stream:    h.stream,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("start editor: %w", err)
	}
	defer func() { _ = ed.Close() }()
	defer region.Close()
	region.OnFlush(ed.Refresh)
	keymaps.OnSelect = func(name string) {
		ed.SetVimMode(name == builtins.KeymapViIns || name == builtins.KeymapViCmd)
	}

	screens := &tui.Screens{
		Input:    input,
		Out:      sc.stdout,
		Fd:       sc.stdin.Fd(),
		Size:     size,
		History:  store,
		Commands: reg.Names,
		Logger:   logger,
	}
	env := &builtins.Env{
		History: store,
		Options: sc.options,
		Vars:    vars,
		Keymaps: keymaps,
		Widgets: builtins.NewWidgetTable(),
		Screens: screens,
		Pick:    screens.Pick,
		Prefill: ed.Prefill,
		Inject:  input.Inject,
		Logger:  logger,
	}
	if err := builtins.Register(reg, env); err != nil {
		return err
	}

	tasks := status.NewGroup(ctx, logger)
	if h.status {
		tasks.Go("counter", status.Counter(region, interval(cfg.StatusIntervalMs)))
	}
	if h.timer {
		tasks.Go("timer", status.Timer(region, interval(cfg.TimerIntervalMs)))
	}
	if h.status {
		if err := pause(ctx, callbackDelay); err != nil {
			tasks.Stop()
			return nil
		}
	}

	state := session.NewState(h.prompt).WithTrigger(h.trigger, h.mask)
	state.RightPrompt = h.rightPrompt
	loop := &session.Loop{
		Reader:           ed,
		Registry:         reg,
		Terminal:         ed,
		Widgets:          ed,
		Tasks:            tasks,
		Parser:           h.parser,
		Expand:           aliasExpander(cfg),
		Residual:         map[string]registry.Handler{"tmux": builtins.Tmux},
		Out:              ed.Stdout(),
		Err:              sc.stderr,
		Logger:           logger,
		State:            state,
		Color:            h.color && sc.colorOn,
		SecondaryPattern: cfg.SecondaryPromptPattern,
		Indentation:      cfg.Indentation,
		Sleep:            time.Duration(cfg.SleepMs) * time.Millisecond,
		OnPhase: func(p session.Phase) {
			logger.Debug("session phase", "phase", p.String())
		},
	}
	vars.OnChange = func(name, value string) {
		switch name {
		case builtins.VarSecondaryPrompt:
			loop.SecondaryPattern = value
		case builtins.VarIndentation:
			loop.Indentation = vars.Int(name, loop.Indentation)
		}
	}

	logger.Info("session started", "completer", fmt.Sprintf("%T", h.completer), "stream", h.stream)
	err = loop.Run(ctx)
	logger.Info("session ended", "phase", loop.Phase().String(), "error", err)
	return err
}

// terminalName describes what the session is attached to.
func terminalName(in *os.File, stream bool) string {
	if stream {
		return "lineloop stream terminal"
	}
	return term.Name(in)
}

// sessionCompleter completes command names and their arguments, the
// configured aliases and whatever the harness cases add.
func sessionCompleter(reg *registry.Registry, cfg *config.Config, h *harness) complete.Completer {
	agg := complete.NewAggregate(reg.Completer())
	if names := cfg.AliasNames(); len(names) > 0 {
		agg.Add(complete.NewArgument(complete.NewStrings(names...), complete.Null))
	}
	if h.completer != nil {
		agg.Add(h.completer)
	}
	return agg
}

// sessionDescriber describes registered commands and method calls unless
// the harness brings its own descriptions.
func sessionDescriber(reg *registry.Registry, h *harness) describe.Describer {
	if h.describer != nil {
		return h.describer
	}
	return &describe.Generator{Commands: reg, Resolver: methodResolver()}
}

// methodResolver answers every call with the two overloads of method1 and
// refuses sources longer than 20 bytes.
func methodResolver() describe.Resolver {
	return &describe.StaticResolver{
		Fallback: []describe.Signature{
			{Name: "method1", Params: []string{"int arg1", "List<String> arg2"}},
			{Name: "method1", Params: []string{"int arg1", "Map<String,Object> arg2"}},
		},
		MaxSource: 20,
	}
}

// aliasExpander resolves the aliases of the config file.
func aliasExpander(cfg *config.Config) func(string) ([]string, bool) {
	return func(name string) ([]string, bool) {
		if _, ok := cfg.Aliases[name]; !ok {
			return nil, false
		}
		words, err := cfg.Alias(name)
		if err != nil {
			return nil, false
		}
		return words, true
	}
}

// interval converts a configured millisecond count; zero means one second.
func interval(ms int) time.Duration {
	if ms <= 0 {
		return time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
