package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/internal/runner"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered connectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tVERSION\tTRANSPORTS\tDESCRIPTION")
			for _, tag := range registry.List() {
				info, err := registry.Info(tag)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tag, info.Version, strings.Join(info.Transports, ","), info.Description)
			}
			return w.Flush()
		},
	}
}

func validateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the reader and writer sections of a job file",
		Long:  `Runs the structural checks of every configured section. For readers this includes a live enumeration of the configured paths.`,
		RunE: withSession(v, func(ctx context.Context, s *session, args []string) error {
			var failed bool
			for _, d := range s.descriptors() {
				desc, err := d()
				if err != nil {
					return err
				}
				err = desc.Validate(ctx)
				printValidation(s.out, desc, err)
				if err != nil {
					failed = true
				}
			}
			if failed {
				return errors.New(errors.ErrorTypeValidation, "job file is invalid")
			}
			return nil
		}),
	}
}

func schemaCommand(v *viper.Viper) *cobra.Command {
	var column, table string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Parse a column specification and print the resulting schema",
		Long: `Parses --column, or the reader column of --config when --column is empty.

Example:
  nebula-ftp schema --column "0:id:long,1:created:date:yyyy-MM-dd"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := loadSettings(v)
			raw := column
			if raw == "" {
				if settings.Config == "" {
					return errors.New(errors.ErrorTypeConfig, "one of --column or --config is required")
				}
				cfg, err := loadJob(settings.Config)
				if err != nil {
					return err
				}
				if cfg.Reader == nil {
					return errors.New(errors.ErrorTypeConfig, "job file has no reader section")
				}
				raw = cfg.Reader.Column
				if table == "" {
					table = cfg.Name
				}
			}
			s, err := schema.ParseNamed(table, raw)
			if err != nil {
				return err
			}
			return printSchema(cmd.OutOrStdout(), settings.Output, s)
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column specification to parse")
	cmd.Flags().StringVar(&table, "table", "", "Table name reported with the schema")
	return cmd
}

func planCommand(v *viper.Viper) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the sub-tasks of a job",
		Long:  `Validates the job, enumerates the reader paths and prints one line per read sub-task. With a writer section the write plan for --table is printed too.`,
		RunE: withSession(v, func(ctx context.Context, s *session, args []string) error {
			var plans []planView
			if s.cfg.Reader != nil {
				tasks, err := s.readTasks(ctx)
				if err != nil {
					return err
				}
				for _, task := range tasks {
					plans = append(plans, planView{Values: task.TemplateValues()})
				}
			}
			if s.cfg.Writer != nil {
				plan, err := s.writePlan(ctx, table)
				if err != nil {
					return err
				}
				view := planView{Values: plan.Main.TemplateValues()}
				for _, pre := range plan.PreTasks {
					view.PreTasks = append(view.PreTasks, pre.Name())
				}
				plans = append(plans, view)
			}
			return printPlans(s.out, s.settings.Output, plans)
		}),
	}
	cmd.Flags().StringVar(&table, "table", "", "Source table of the write plan (defaults to the job name)")
	return cmd
}

func checkCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every enumerated file is still reachable",
		Long:  `Enumerates the reader paths and checks each resulting sub-task on a bounded worker pool, reporting files that disappeared between listing and execution.`,
		RunE: withSession(v, func(ctx context.Context, s *session, args []string) error {
			tasks, err := s.readTasks(ctx)
			if err != nil {
				return err
			}

			r := runner.New(runner.Config{Workers: s.workers(), ContinueOnError: true}, s.log)
			stats, err := r.RunRead(ctx, partition.NewIterator(tasks), func(ctx context.Context, task *partition.SubTaskContext) error {
				for _, p := range task.SourcePaths() {
					ok, err := s.fs.Exists(ctx, p)
					if err != nil {
						return err
					}
					if !ok {
						return errors.New(errors.ErrorTypeNotFound, "file disappeared").WithDetail("path", p)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(stats.Errors))
			for id := range stats.Errors {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(s.out, "FAIL %s: %v\n", id, stats.Errors[id])
			}
			fmt.Fprintf(s.out, "%d ok, %d failed in %s\n", stats.Completed, stats.Failed, stats.Duration.Round(time.Millisecond))
			if stats.Failed > 0 {
				return errors.Newf(errors.ErrorTypeNotFound, "%d of %d files are unreachable", stats.Failed, len(tasks))
			}
			return nil
		}),
	}
}

// descriptors returns constructors for the sections present in the job.
func (s *session) descriptors() []func() (core.Descriptor, error) {
	var out []func() (core.Descriptor, error)
	if s.cfg.Reader != nil {
		out = append(out, func() (core.Descriptor, error) { return registry.CreateReader(s.tag(), s.cfg, s.fs) })
	}
	if s.cfg.Writer != nil {
		out = append(out, func() (core.Descriptor, error) { return registry.CreateWriter(s.tag(), s.cfg, s.fs) })
	}
	return out
}

func (s *session) readTasks(ctx context.Context) ([]*partition.SubTaskContext, error) {
	if s.cfg.Reader == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "job file has no reader section")
	}
	reader, err := registry.CreateReader(s.tag(), s.cfg, s.fs)
	if err != nil {
		return nil, err
	}
	if err := reader.Validate(ctx); err != nil {
		return nil, err
	}
	it, err := reader.SubTasks(ctx, core.AllTables)
	if err != nil {
		return nil, err
	}
	tasks := make([]*partition.SubTaskContext, 0, it.Remaining())
	for task, ok := it.Next(); ok; task, ok = it.Next() {
		tasks = append(tasks, task)
	}
	s.log.Info("read sub-tasks planned", zap.Int("subtasks", len(tasks)))
	return tasks, nil
}

// writePlan plans the write of table. The reader schema, when the job has
// one, describes the source columns.
func (s *session) writePlan(ctx context.Context, table string) (*partition.WritePlan, error) {
	writer, err := registry.CreateWriter(s.tag(), s.cfg, s.fs)
	if err != nil {
		return nil, err
	}
	if err := writer.Validate(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = s.cfg.Name
	}
	mapping := partition.TableMapping{SourceTable: table}
	if s.cfg.Reader != nil {
		cols, err := schema.ParseNamed(table, s.cfg.Reader.Column)
		if err != nil {
			return nil, err
		}
		mapping.Columns = cols
	}
	return writer.SubTask(mapping)
}

type planView struct {
	Values   map[string]interface{} `json:"values"`
	PreTasks []string               `json:"pre_tasks,omitempty"`
}

func printValidation(out io.Writer, d core.Descriptor, err error) {
	fmt.Fprintf(out, "%s (%s): %s\n", d.Name(), d.Role(), d.State())
	if err == nil {
		return
	}
	var fe *errors.FieldErrors
	if errors.As(err, &fe) {
		for _, field := range fe.Fields() {
			fmt.Fprintf(out, "  %s: %v\n", field, fe.Get(field))
		}
		return
	}
	fmt.Fprintf(out, "  %v\n", err)
}

func printSchema(out io.Writer, format string, s *schema.TableSchema) error {
	if format == "json" {
		return writeJSON(out, struct {
			Table   string              `json:"table,omitempty"`
			Columns []schema.ColumnSpec `json:"columns"`
		}{s.Name(), s.Columns()})
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tTYPE\tFORMAT")
	for _, c := range s.Columns() {
		idx := "-"
		if c.HasIndex() {
			idx = fmt.Sprint(c.Index)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idx, c.Name, c.Type, c.Format)
	}
	return w.Flush()
}

func printPlans(out io.Writer, format string, plans []planView) error {
	if format == "json" {
		return writeJSON(out, plans)
	}
	for _, p := range plans {
		fmt.Fprintf(out, "%v %v", p.Values["id"], p.Values["kind"])
		if src, ok := p.Values["source_paths"].([]string); ok && len(src) > 0 {
			fmt.Fprintf(out, " %s", strings.Join(src, ","))
		}
		if target, ok := p.Values["target"].(string); ok && target != "" {
			fmt.Fprintf(out, " -> %s", target)
		}
		if len(p.PreTasks) > 0 {
			fmt.Fprintf(out, " (after %s)", strings.Join(p.PreTasks, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
