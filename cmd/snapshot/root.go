package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Neumenon/snapshot/snapshot"
)

const (
	libVersion    = "0.1.0"
	formatVersion = "snapshot/v1"
	envPrefix     = "SNAPSHOT"
)

// app is the state shared by all commands.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "snapshot",
		Short:         "Deterministic snapshot serializer",
		Long:          `snapshot renders structured data as canonical, diff-friendly text and inspects snapshot documents.`,
		Version:       libVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags()); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetBool("verbose"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("indent", "  ", "indent unit")
	root.PersistentFlags().Int("max-depth", 99, "maximum nesting depth")

	root.AddCommand(a.newDumpCmd())
	root.AddCommand(a.newBlocksCmd())
	root.AddCommand(a.newShowCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// bind wires the command's flags to viper, so SNAPSHOT_MAX_DEPTH and
// friends override unset flags.
func (a *app) bind(flags *pflag.FlagSet) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	return nil
}

// serializerOptions builds the serializer options from flags and env.
func (a *app) serializerOptions() (snapshot.Options, error) {
	opts := snapshot.DefaultOptions()
	if indent := a.v.GetString("indent"); indent != "" {
		if strings.TrimLeft(indent, " \t") != "" {
			return opts, errors.Newf("indent %q must be spaces or tabs", indent)
		}
		opts.Indent = indent
	}
	if depth := a.v.GetInt("max-depth"); depth > 0 {
		opts.MaxDepth = depth
	}
	opts.Logger = a.logger
	return opts, nil
}

// newLogger builds a console logger writing to w: info level, or debug
// with --verbose.
func newLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	name := "info"
	if verbose {
		name = "debug"
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s\n", libVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "format %s\n", formatVersion)
		},
	}
}
