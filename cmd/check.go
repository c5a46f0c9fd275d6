package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/astyaml"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/infer"
	"github.com/impalago/infersema/internal/config"
	"github.com/impalago/infersema/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var logger = log.DefaultLogger.With("section", "cli")

var CheckCmd = &cobra.Command{
	Use:          "check file.yaml",
	Short:        "Infer the types of a program and report type errors",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

// ErrDiagnostics is returned when the program has errors. They have already
// been printed by then.
var ErrDiagnostics = errors.New("type checking failed")

var (
	configPath  *string
	maxPasses   *int
	logLevel    *string
	color       *string
	debugErrors *bool
)

func init() {
	configPath = CheckCmd.Flags().StringP("config", "c", "", "config file (default: nearest "+config.FileName+")")
	maxPasses = CheckCmd.Flags().Int("max-passes", config.DefaultMaxPasses, "maximum number of inference passes")
	logLevel = CheckCmd.Flags().StringP("log-level", "l", "error", "log level: debug, info, warn or error")
	color = CheckCmd.Flags().String("color", string(config.ColorAuto), "color diagnostics: auto, always or never")
	debugErrors = CheckCmd.Flags().Bool("debug-errors", false, "show where in the checker each diagnostic was raised")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrap(err, "could not get absolute path of target")
	}
	cfg, err := loadConfig(cmd, target)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.Level())
	ilerr.DebugStacks = *debugErrors

	out := cmd.OutOrStdout()
	ok, err := check(out, target, cfg, useColor(cfg.Color, out))
	if err != nil {
		return err
	}
	if !ok {
		return ErrDiagnostics
	}
	return nil
}

// loadConfig reads the config file and applies the flags the user set on
// top of it
func loadConfig(cmd *cobra.Command, target string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
	} else {
		var from string
		cfg, from, err = config.ForFile(target)
		if from != "" {
			logger.Info("using config", "path", from)
		}
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-passes") {
		cfg.MaxPasses = *maxPasses
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if flags.Changed("color") {
		cfg.Color = config.ColorMode(*color)
	}
	if err := cfg.Validate("command line"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func useColor(mode config.ColorMode, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// check loads and checks the program at path, printing diagnostics and the
// types of its items to out. ok is false when there were diagnostics.
func check(out io.Writer, path string, cfg *config.Config, colored bool) (ok bool, err error) {
	prog, loadErrs, err := astyaml.LoadFile(path)
	if err != nil {
		return false, errors.Wrap(err, "could not load program")
	}
	if loadErrs.HasError() {
		printDiagnostics(out, loadErrs, prog, colored)
		return false, nil
	}

	res := infer.Infer(prog.Mod, infer.WithMaxPasses(cfg.MaxPasses))
	logger.Debug("inference done", "passes", res.Passes, "state", res.State, "unresolved", res.Unresolved)
	printDiagnostics(out, res.Errors, prog, colored)
	printItems(out, prog.Mod.Items, "")
	return !res.Errors.HasError(), nil
}

func printDiagnostics(out io.Writer, errs *ilerr.Errors, prog *astyaml.Program, colored bool) {
	for _, e := range errs.Sorted() {
		msg := ilerr.FormatWithPosition(e, prog.Fset)
		if colored {
			msg = "\x1b[31m" + msg + "\x1b[0m"
		}
		_, _ = fmt.Fprintln(out, msg)
	}
}

func printItems(out io.Writer, items []ast.Item, prefix string) {
	for _, item := range items {
		switch item := item.(type) {
		case *ast.ModDecl:
			if item.Contents != nil {
				printItems(out, item.Contents.Items, prefix+item.Name+"::")
			}
		case *ast.ExternBlock:
			for _, fn := range item.Fns {
				printTyped(out, prefix+fn.Name, fn)
			}
		case *ast.FnDecl:
			printTyped(out, prefix+item.Name, item)
		case *ast.StaticItem:
			printTyped(out, prefix+item.Name, item)
		case *ast.StructDecl:
			printTyped(out, prefix+item.Name, item)
		default:
			logger.Warn("not printing item", "kind", fmt.Sprintf("%T", item))
		}
	}
}

func printTyped(out io.Writer, name string, n ast.TypedNode) {
	if n.Type() == nil {
		_, _ = fmt.Fprintf(out, "%s: ?\n", name)
		return
	}
	_, _ = fmt.Fprintf(out, "%s: %v\n", name, n.Type())
}
