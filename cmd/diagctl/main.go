package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"loan-default-dashboard/internal/adapters/export/xlsx"
	"loan-default-dashboard/internal/adapters/storage/csvfile"
	pg "loan-default-dashboard/internal/adapters/storage/postgres"
	"loan-default-dashboard/internal/config"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/ports/notifier"
	"loan-default-dashboard/internal/router"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "diagctl",
		Short:         "Operaciones sobre los diagnósticos de Score Collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")

	rootCmd.AddCommand(
		newExportCmd(),
		newSummaryCmd(),
		newNotifyTestCmd(),
	)
	return rootCmd
}

func loadService() (*diagnostics.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	repo := csvfile.NewDiagnosticsRepo(cfg.Storage.DiagnosticsFile)
	// Las operaciones de lectura no envían e-mail.
	return diagnostics.NewService(repo, nil), nil
}

func newExportCmd() *cobra.Command {
	var format, out, source string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta los diagnósticos a CSV o XLSX",
		Long: `Exporta los diagnósticos desde el archivo plano o desde el espejo en Postgres.

Example: diagctl export --format xlsx --out diagnosticos.xlsx
         diagctl export --source postgres --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if err := checkFormat(format); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			src, closeSrc, err := openSource(cmd.Context(), cfg, source)
			if err != nil {
				return err
			}
			defer closeSrc()

			return writeExport(cmd.Context(), src, format, out, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv | xlsx")
	cmd.Flags().StringVar(&out, "out", "-", "archivo de salida (- = stdout)")
	cmd.Flags().StringVar(&source, "source", "csv", "csv | postgres")
	return cmd
}

type recordLister interface {
	List(ctx context.Context) ([]diagnostics.Record, error)
}

func checkFormat(format string) error {
	switch format {
	case "csv", "xlsx":
		return nil
	default:
		return fmt.Errorf("unknown format %q (use csv or xlsx)", format)
	}
}

// openSource devuelve de dónde leer: el archivo plano (fuente de verdad) o el espejo en Postgres.
func openSource(ctx context.Context, cfg *config.Config, source string) (recordLister, func(), error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", "csv":
		repo := csvfile.NewDiagnosticsRepo(cfg.Storage.DiagnosticsFile)
		return diagnostics.NewService(repo, nil), func() {}, nil
	case "postgres":
		if cfg.Storage.DatabaseDSN == "" {
			return nil, nil, errors.New("source postgres requires DB_DSN")
		}
		db, err := pg.Open(ctx, cfg.Storage.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return pg.NewDiagnosticsRepo(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (use csv or postgres)", source)
	}
}

// writeExport lee todo antes de crear el archivo de salida: un error no deja archivos vacíos.
func writeExport(ctx context.Context, src recordLister, format, out string, stdout io.Writer) (err error) {
	if err := checkFormat(format); err != nil {
		return err
	}
	recs, err := src.List(ctx)
	if err != nil {
		return err
	}

	if out == "" || out == "-" {
		return encodeExport(stdout, format, recs)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encodeExport(f, format, recs)
}

func encodeExport(w io.Writer, format string, recs []diagnostics.Record) error {
	switch format {
	case "csv":
		return diagnostics.WriteCSV(w, recs)
	case "xlsx":
		return xlsx.Write(w, diagnostics.Header(), diagnostics.Rows(recs))
	default:
		return checkFormat(format)
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Muestra la cobertura de cada variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService()
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), sum)
		},
	}
}

func printSummary(w io.Writer, sum diagnostics.Summary) error {
	fmt.Fprintf(w, "Diagnósticos: %d\n", sum.Submissions)
	if sum.LastSubmittedAt != nil {
		fmt.Fprintf(w, "Último envio: %s\n", sum.LastSubmittedAt.Format(diagnostics.TimestampLayout))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIÁVEL\tSIM\tTOTAL\t%")
	for _, fc := range sum.Fields {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", fc.Field, fc.Yes, fc.Total, fc.Percent)
	}
	return tw.Flush()
}

func newNotifyTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Envía un e-mail de prueba con la configuración actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			n, _ := router.NewNotifier(cfg.Mail)

			res := n.Notify(cmd.Context(), notifier.Message{
				ID:      uuid.NewString(),
				Subject: diagnostics.NotificationSubject + " (teste)",
				Body:    diagnostics.RenderBody(sampleRecord(time.Now())),
			})
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

// sampleRecord es el registro del e-mail de prueba: todo "Sim", fechado ahora.
func sampleRecord(now time.Time) diagnostics.Record {
	rec := diagnostics.Record{
		SubmittedAt: now.Local().Truncate(time.Second),
		Answers:     make(map[diagnostics.Field]diagnostics.Answer, len(diagnostics.Fields)),
	}
	for _, f := range diagnostics.Fields {
		rec.Answers[f] = diagnostics.AnswerYes
	}
	return rec
}

func printResult(w io.Writer, res notifier.Result) error {
	if res.OK() {
		fmt.Fprintln(w, "sent")
		return nil
	}
	fmt.Fprintf(w, "kind=%s retryable=%t\n", res.Kind, res.Retryable())
	return fmt.Errorf("notification failed: %s", res.Reason())
}
