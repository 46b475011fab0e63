package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runger/lineloop/internal/builtins"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "lineloop [cases... [trigger mask]]",
	Short: "interactive line editing session",
	Long: `lineloop - an interactive read-eval-dispatch session
  - completion from strings, files, argument lists, trees and patterns
  - history and completer suggestions, tail tips, autopair
  - status line, mouse events and masked input`,
	Example:            "  lineloop simple su '*'\n  lineloop argument status\n  lineloop brackets color",
	Version:            Version,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE:               runRoot,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lineloop/config.yaml)")
	f.StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")
	f.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error")
	rootCmd.SetVersionTemplate(versionTemplate)
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + "\n" + usageText + "\n")
}

func runRoot(cmd *cobra.Command, args []string) error {
	flagArgs, words := splitArgs(cmd.Flags(), args)
	if err := cmd.Flags().Parse(flagArgs); err != nil {
		return err
	}
	if help, _ := cmd.Flags().GetBool("help"); help {
		return cmd.Help()
	}
	if version, _ := cmd.Flags().GetBool("version"); version {
		fmt.Fprint(cmd.OutOrStdout(), versionString())
		return nil
	}

	colorOn, err := applyColorMode(os.Stdout)
	if err != nil {
		return err
	}
	opts := builtins.NewOptions()
	h, err := parseCases(words, opts, time.Now(), cmd.OutOrStdout())
	if errors.Is(err, errUsage) {
		fmt.Fprintln(cmd.OutOrStdout(), usageText)
		return nil
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	return runSession(ctx, sessionConfig{
		harness:    h,
		options:    opts,
		colorOn:    colorOn,
		configPath: configPath,
		logLevel:   logLevel,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	})
}

// splitArgs separates flags from case words. Case words may start with a
// single dash (-system), so only -h and words starting with -- are flags.
// A flag taking a value consumes the next word unless written name=value.
func splitArgs(fs *pflag.FlagSet, args []string) (flags, words []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return flags, append(words, args[i+1:]...)
		case a == "-h":
			flags = append(flags, a)
		case strings.HasPrefix(a, "--"):
			flags = append(flags, a)
			name := strings.TrimPrefix(a, "--")
			if strings.Contains(name, "=") {
				continue
			}
			if f := fs.Lookup(name); f != nil && f.NoOptDefVal == "" && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			words = append(words, a)
		}
	}
	return flags, words
}
