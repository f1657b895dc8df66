package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/element"
	"github.com/specialistvlad/algogrid/internal/executor"
	"github.com/specialistvlad/algogrid/internal/pipegraph"
	"github.com/specialistvlad/algogrid/internal/pipeline"
	"github.com/specialistvlad/algogrid/internal/schema"
)

// Run assembles and executes the configured pipeline. Requested elements
// that are not written to an output container are printed as YAML.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	a.ctx = ctx
	logger.Debug("App.Run method started.")

	if _, err := a.startMetricsServer(); err != nil {
		return err
	}
	defer a.closeMetricsServer()

	spec, err := a.config.Spec()
	if err != nil {
		return err
	}
	p, err := pipeline.Assemble(ctx, a.catalog, a.handlers, spec, executor.WithMetrics(a.metrics))
	if err != nil {
		return fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	logger.Info("🚀 Starting pipeline run...", "units", len(p.Graph().Units()))
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("run %s failed: %w", runID, err)
	}
	logger.Info("🏁 Pipeline run finished.")

	return a.printResults(ctx, p, spec)
}

func (a *App) printResults(ctx context.Context, p *pipeline.Pipeline, spec *pipeline.Spec) error {
	results, err := p.Results(ctx)
	if err != nil {
		return err
	}

	printed := yaml.MapSlice{}
	seen := make(map[string]bool)
	for _, out := range spec.Outputs {
		if out.Path != "" {
			continue
		}
		for _, name := range out.Elements {
			if !seen[name] {
				seen[name] = true
				printed = append(printed, yaml.MapItem{Key: name, Value: results[name]})
			}
		}
	}
	if len(printed) == 0 {
		return nil
	}

	data, err := yaml.Marshal(printed)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	_, err = a.outW.Write(data)
	return err
}

// Graph writes the pipeline graph of the configured outputs in DOT format.
func (a *App) Graph(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	spec, err := a.config.Spec()
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	g, err := pipegraph.Build(ctx, a.catalog, spec.Requested())
	if err != nil {
		return err
	}
	return g.WriteDOT(a.outW)
}

// Units lists the registered units with their fields.
func (a *App) Units(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Listing units.", "count", a.catalog.Len())

	tw := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	for _, d := range a.catalog.All() {
		s := d.Schema
		if s.Description() != "" {
			fmt.Fprintf(tw, "%s\t%s\n", s.Unit(), s.Description())
		} else {
			fmt.Fprintf(tw, "%s\n", s.Unit())
		}
		for _, f := range s.Inputs() {
			fmt.Fprintf(tw, "  input\t%s\t%s\t%s\n", f.Name, element.TypeString(f.Type), fieldNotes(f))
		}
		for _, f := range s.Outputs() {
			fmt.Fprintf(tw, "  output\t%s\t%s\t%s\n", f.Name, element.TypeString(f.Type), fieldNotes(f))
		}
		for _, f := range s.Params() {
			fmt.Fprintf(tw, "  param\t%s\t%s\t%s\n", f.Name, element.TypeString(f.Type), fieldNotes(f))
		}
	}
	return tw.Flush()
}

func fieldNotes(f schema.Field) string {
	var notes []string
	if f.Required {
		notes = append(notes, "required")
	}
	if f.HasDefault() {
		if v, err := ctyconv.ToNative(f.Default); err == nil {
			notes = append(notes, fmt.Sprintf("default=%v", v))
		}
	}
	if len(f.Aliases) > 0 {
		aliases := append([]string(nil), f.Aliases...)
		sort.Strings(aliases)
		notes = append(notes, "aliases="+strings.Join(aliases, ","))
	}
	if f.Referenced() {
		notes = append(notes, "ref="+f.Reference)
	}
	if f.Deprecated {
		notes = append(notes, "deprecated")
	}
	return strings.Join(notes, " ")
}
