package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Sternrassler/lol-series-fetcher/pkg/export"
	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/Sternrassler/lol-series-fetcher/pkg/storage"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	csvFormat    = "csv"
	sqliteFormat = "sqlite"
)

var legalExportFormats = []string{csvFormat, sqliteFormat}

type ExportOptions struct {
	GlobalOptions

	RunName string
	Formats []string
	Upload  bool
}

func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdExport() *cobra.Command {
	o := DefaultExportOptions()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten a run's raw series into relational tables.",
		Example: `  series-fetcher export --run latest
  series-fetcher export --run 20240601_120000 --format csv,sqlite --upload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ExportOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.RunName, "run", "r", o.RunName, "Run name or \"latest\"")
	fs.StringSliceVarP(&o.Formats, "format", "f", o.Formats, fmt.Sprintf("Export formats. Any of: (%s). (default from config: csv)", strings.Join(legalExportFormats, ", ")))
	fs.BoolVar(&o.Upload, "upload", o.Upload, "Upload the written files to the configured object storage")
}

func (o *ExportOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") {
		o.Formats = o.Config.Export.Formats
	}
	return nil
}

func (o *ExportOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.RunName == "" {
		return run.ErrRunRequired
	}
	if len(o.Formats) == 0 {
		return fmt.Errorf("at least one export format is required")
	}
	for _, f := range o.Formats {
		if !slices.Contains(legalExportFormats, f) {
			return fmt.Errorf("export format must be one of %s (got %q)", strings.Join(legalExportFormats, ", "), f)
		}
	}
	if o.Upload && !o.Config.Storage.Enabled() {
		return fmt.Errorf("--upload requires storage.bucket to be configured")
	}
	return nil
}

func (o *ExportOptions) Run(ctx context.Context, args []string) error {
	layout, err := run.Open(o.OutputRoot(), o.RunName)
	if err != nil {
		return err
	}
	logger := o.Logger.With().Str("run_id", layout.ID).Logger()

	fmt.Fprintf(o.Out, "Exporting run: %s\n", layout.ID)
	docs, err := export.LoadDocuments(layout.Raw())
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "Loaded %d series\n", len(docs))

	var writers []export.Writer
	for _, f := range o.Formats {
		switch f {
		case csvFormat:
			writers = append(writers, export.NewCSVWriter(layout.ExportDir(), logger))
		case sqliteFormat:
			writers = append(writers, export.NewSQLiteWriter(layout.SQLitePath(), logger))
		}
	}

	res, err := export.Export(ctx, docs, writers, logger)
	if err != nil {
		return err
	}
	if res.Documents == 0 {
		fmt.Fprintln(o.Out, "No data to export!")
		return nil
	}

	t := newTable(o.Out)
	t.SetTitle("Export Summary")
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, name := range export.TableNames {
		t.AppendRow(table.Row{name, res.Counts[name]})
	}
	t.AppendFooter(table.Row{"Skipped documents", len(res.Skipped)})
	t.Render()
	if res.Empty {
		fmt.Fprintf(o.Out, "\nAll %d documents were skipped; tables contain headers only.\n", res.Documents)
	}

	fmt.Fprintf(o.Out, "\nOutput: %s\n", layout.ExportDir())

	if !o.Upload {
		return nil
	}
	return o.upload(ctx, layout, res.Artifacts)
}

func (o *ExportOptions) upload(ctx context.Context, layout run.Layout, artifacts []export.Artifact) error {
	sc := o.Config.Storage
	store, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Endpoint:  sc.Endpoint,
		AccessKey: sc.AccessKey,
		SecretKey: sc.SecretKey,
		UseSSL:    sc.UseSSL,
		Bucket:    sc.Bucket,
		Region:    sc.Region,
	})
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}

	files := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		files = append(files, a.Path)
	}
	urls, err := storage.UploadFiles(ctx, store, sc.Prefix, layout.ID, files)
	if err != nil {
		return fmt.Errorf("upload exports: %w", err)
	}

	fmt.Fprintf(o.Out, "\nUploaded %d files:\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(o.Out, "  %s\n", u)
	}
	return nil
}
