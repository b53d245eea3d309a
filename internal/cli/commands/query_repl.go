package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldf/internal/cli/config"
	"github.com/leapstack-labs/sqldf/internal/datafile"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

const (
	replPrompt         = "sqldf> "
	replContinuePrompt = "  ...> "
)

// repl holds the state shared by REPL input handlers.
type repl struct {
	runner   *sqldf.Runner
	bindings datafile.Bindings
	env      sqldf.Environment
	format   string
	out      io.Writer
	errOut   io.Writer
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, runner *sqldf.Runner, bindings datafile.Bindings) error {
	ctx := cmd.Context()

	r := &repl{
		runner:   runner,
		bindings: bindings,
		env:      bindings.Environment(),
		format:   cmdCtx.Cfg.OutputFormat,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(cmdCtx.Cfg),
		AutoComplete:    newBindingCompleter(bindings),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(r.out, "sqldf REPL (engine: %s, %d bindings)\n", cmdCtx.Cfg.Engine, len(bindings))
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	// REPL loop
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		done, prompt := r.handleLine(ctx, &buf, line)
		if done {
			break
		}
		rl.SetPrompt(prompt)
	}

	return nil
}

// handleLine consumes one input line. It reports whether the REPL should
// exit and which prompt to show next.
func (r *repl) handleLine(ctx context.Context, buf *strings.Builder, line string) (bool, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		if buf.Len() > 0 {
			return false, replContinuePrompt
		}
		return false, replPrompt
	}

	// Dot-commands only at the start of a statement
	if buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.handleDotCommand(line), replPrompt
	}

	// Accumulate multi-line SQL until semicolon
	buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		buf.WriteString("\n")
		return false, replContinuePrompt
	}

	script := buf.String()
	buf.Reset()
	if err := executeAndRender(ctx, r.out, r.runner, script, r.env, r.format); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(r.out)
	return false, replPrompt
}

// handleDotCommand runs a dot-command and reports whether it asked to quit.
func (r *repl) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".tables":
		if err := renderBindings(r.out, r.bindings, r.format, tableBindings); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		}

	case ".vars":
		if err := renderBindings(r.out, r.bindings, r.format, scalarBindings); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List data bindings usable as tables
  .vars           List scalar bindings usable as :name parameters
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL scripts run when a line ends with a semicolon (;)
  - Each script runs in a fresh engine; tables do not persist between scripts
  - Use arrow keys to navigate history
  - Tab completion works for binding names
`
	_, _ = fmt.Fprintln(w, help)
}

// historyFile returns the configured history file, defaulting to one in the
// home directory.
func historyFile(cfg *config.Config) string {
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, config.DefaultHistoryFile)
}

// newBindingCompleter creates a readline completer for binding names.
func newBindingCompleter(bindings datafile.Bindings) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(bindings)+6)
	for _, b := range bindings {
		items = append(items, readline.PcItem(b.Name), readline.PcItem(":"+b.Name))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".vars"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
