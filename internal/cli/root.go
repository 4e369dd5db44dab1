// Package cli implements the performer command line.
package cli

import (
	"fmt"

	"github.com/leandrodaf/midiperformer/internal/logger"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	logLevel string
	logFile  string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "performer",
	Short: "Performs MIDI note events from files and live input",
	Long: `performer turns note on/off events from Standard MIDI Files and from live
MIDI input devices into engine commands. Without an engine attached, every
command is logged.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "write logs to this file instead of stderr")
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// baseOptions builds the logger options shared by every command. The log file
// is opened here once, so the options can be passed to several factories.
func baseOptions() ([]contracts.Option, contracts.Logger, error) {
	level, ok := contracts.ParseLogLevel(flags.logLevel)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", flags.logLevel)
	}

	log := logger.NewZapLogger()
	if flags.logFile != "" {
		log.SetDestination(contracts.FileLog, flags.logFile)
	}
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
	}
	return opts, log, nil
}
