package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/furnace/go/furnace/internal/config"
	"github.com/provide-io/furnace/go/furnace/pkg/logging"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	configPath  string
	logLevel    string
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("furnace-tables %s\n", version)
	fmt.Printf("Built: %s\n", getBuildTimestamp())
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "furnace-tables",
		Short: "Assemble furnace controller total tables",
		Long: `Collects the static, action, dynamic and monitoring tables, encodes the
header and writes the header, total table and header+3×total images.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to INI config (default $FURNACE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, json[:level])")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(
		newCollectCmd(),
		newEmitCmd("header", "Write the header image", emitHeader),
		newEmitCmd("total", "Write the total table image", emitTotal),
		newEmitCmd("final", "Write the header+3×total image", emitFinal),
		newAssembleCmd(),
		newSessionCmd(),
		newVerifyCmd(),
		newFlowCmd(),
		newDynamicCmd(),
	)
}

// env bundles what every command needs.
type env struct {
	cfg    *config.Config
	logger hclog.Logger
}

func setup(name string) (*env, error) {
	level, source := logging.ResolveLevel(logLevel)
	logger := logging.NewLogger(logging.Options{Name: "furnace-tables", Level: level}).Named(name)
	logger.Debug("Log level", "level", level, "source", source)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Trace("Configuration loaded",
		"total_dir", cfg.TotalDir,
		"dynamic_dir", cfg.DynamicDir,
		"load_address", fmt.Sprintf("0x%08X", cfg.LoadAddress),
		"motor", cfg.MotorHex)
	return &env{cfg: cfg, logger: logger}, nil
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(0)
	}

	err := rootCmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, terrors.ErrFileNotMatched), errors.Is(err, terrors.ErrEmptyContent):
		notifyWarn(err)
	default:
		notifyFail(err)
		os.Exit(1)
	}
}
