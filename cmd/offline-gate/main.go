package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// this is set by goreleaser
var version string

// GlobalOptions bundles the options shared by all commands.
type GlobalOptions struct {
	Trace   bool
	LogFile string
}

var globalOptions GlobalOptions

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "offline-gate",
	Short: "Offline-resilience gateway for single-page applications",
	Long: `
offline-gate sits between a single-page application and its HTTP origin and
keeps the app usable when the network is degraded or absent. Static assets
are served cache-first from a versioned partition precached at install time;
API responses are served network-first with a cache fallback.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

func init() {
	if version == "" {
		version = "DEV"
	}
	f := cmdRoot.PersistentFlags()
	f.BoolVar(&globalOptions.Trace, "vv", false, "verbosity: trace logging")
	f.StringVar(&globalOptions.LogFile, "log-file", "", "log file to use (in addition to stdout)")
}

func setupLogging() error {
	logLevel := zerolog.DebugLevel
	if globalOptions.Trace {
		logLevel = zerolog.TraceLevel
	}

	// log to stdout, and to the log file as well if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if globalOptions.LogFile != "" {
		logFileOutput, err := os.OpenFile(globalOptions.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return err
		}
		logOutputs = append(logOutputs, logFileOutput)
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()
	return nil
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
