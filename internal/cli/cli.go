package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/specialistvlad/algogrid/internal/app"
	"github.com/specialistvlad/algogrid/internal/catalog"
)

// EnvPrefix prefixes environment variables that stand in for flags, e.g.
// ALGOGRID_LOG_LEVEL for --log-level.
const EnvPrefix = "ALGOGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// action is what a subcommand does with a configured application.
type action func(ctx context.Context, a *app.App) error

type command struct {
	v       *viper.Viper
	outW    io.Writer
	errW    io.Writer
	modules []catalog.Module
}

// NewRootCommand builds the algogrid command tree. Results go to outW, logs
// and diagnostics to errW. With no modules, the built-in units are used.
func NewRootCommand(outW, errW io.Writer, modules ...catalog.Module) *cobra.Command {
	c := &command{v: viper.New(), outW: outW, errW: errW, modules: modules}
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "algogrid",
		Short: "Run parameterised algorithm pipelines over stored data elements.",
		Long: `algogrid builds a dependency graph of algorithm units from the output
elements you request, resolves every unit's parameters, reads external
inputs from data containers and writes the results back.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.prepare,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file with default flag values (yaml, json or toml).")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline for the requested output elements.",
		Example: `  algogrid run -i series.json -o mean -o stddev
  algogrid run -i data.db#raw -o zscores --output-file out.yaml --params params.yaml
  algogrid run --spec pipeline.hcl`,
		Args: noArgs,
		RunE: c.with(func(ctx context.Context, a *app.App) error { return a.Run(ctx) }),
	}
	pipelineFlags(runCmd)
	runCmd.Flags().Int("metrics-port", 0, "Port serving /health and /metrics during the run. 0 is disabled.")

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the pipeline graph in Graphviz DOT format.",
		Args:  noArgs,
		RunE:  c.with(func(ctx context.Context, a *app.App) error { return a.Graph(ctx) }),
	}
	pipelineFlags(graphCmd)

	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "List the registered units with their inputs, outputs and parameters.",
		Args:  noArgs,
		RunE:  c.with(func(ctx context.Context, a *app.App) error { return a.Units(ctx) }),
	}

	root.AddCommand(runCmd, graphCmd, unitsCmd)
	return root
}

func pipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("spec", "s", "", "Pipeline spec document (.yaml, .yml or .hcl).")
	f.StringSliceP("input", "i", nil, "Input container, 'path[#scope]'. Directories are searched for known formats. Repeatable.")
	f.StringSliceP("output", "o", nil, "Requested output element. Repeatable.")
	f.String("output-file", "", "Container the requested elements are written to. Printed as YAML when empty.")
	f.StringP("params", "p", "", "Parameter overrides file (.yaml, .yml, .json or .hcl).")
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

// prepare binds the invoked command's flags and reads the config file.
func (c *command) prepare(cmd *cobra.Command, _ []string) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	path := c.v.GetString("config")
	if path == "" {
		return nil
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return usageError(fmt.Errorf("failed to read config file: %w", err))
	}
	slog.Debug("Config file loaded.", "path", c.v.ConfigFileUsed())
	return nil
}

func (c *command) config() (*app.Config, error) {
	conf, err := app.NewConfig(app.Config{
		SpecPath:    c.v.GetString("spec"),
		Inputs:      c.v.GetStringSlice("input"),
		Outputs:     c.v.GetStringSlice("output"),
		OutputFile:  c.v.GetString("output-file"),
		ParamsPath:  c.v.GetString("params"),
		LogFormat:   c.v.GetString("log-format"),
		LogLevel:    c.v.GetString("log-level"),
		MetricsPort: c.v.GetInt("metrics-port"),
		LogOutput:   c.errW,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return conf, nil
}

func (c *command) with(fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		conf, err := c.config()
		if err != nil {
			return err
		}
		a := app.NewApp(c.outW, conf, c.modules...)
		return fn(cmd.Context(), a)
	}
}

// Execute runs the command line in args.
func Execute(ctx context.Context, outW, errW io.Writer, args []string, modules ...catalog.Module) error {
	root := NewRootCommand(outW, errW, modules...)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) && strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return err
}
