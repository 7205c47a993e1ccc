package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "loan-default-dashboard/docs"
	"loan-default-dashboard/internal/adapters/export/xlsx"
	"loan-default-dashboard/internal/adapters/notify/smtpmail"
	"loan-default-dashboard/internal/adapters/storage/csvfile"
	"loan-default-dashboard/internal/config"
	"loan-default-dashboard/internal/dashboard"
	"loan-default-dashboard/internal/domain/charts"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/middleware"
	"loan-default-dashboard/internal/platform/logger"
	"loan-default-dashboard/internal/ports/notifier"
)

type Options struct {
	Config *config.Config
	Logger logger.Logger

	// Opcionales: si vienen nil se construyen a partir de Config.
	Notifier   notifier.Notifier
	Repository diagnostics.Repository

	// Espejos (Postgres, Kafka). Pueden ser ninguno.
	Sinks []diagnostics.Sink
}

func NewRouter(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("router: config required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	repo := opts.Repository
	if repo == nil {
		repo = csvfile.NewDiagnosticsRepo(opts.Config.Storage.DiagnosticsFile)
	}

	n := opts.Notifier
	if n == nil {
		var err error
		n, err = NewNotifier(opts.Config.Mail)
		if err != nil {
			// Sin credenciales el formulario sigue guardando; cada envío reporta "config".
			log.Warn("email notifications disabled", map[string]any{"error": err})
		}
	}

	// Services por módulo
	diagSvc := diagnostics.NewService(repo, n,
		diagnostics.WithSinks(opts.Sinks...),
		diagnostics.WithLogger(log.With(map[string]any{"component": "diagnostics"})),
	)

	catalog := charts.Default()
	catalog.Register(diagnostics.CoverageChartID, charts.SectionDiagnostic, diagSvc.CoverageChart)

	page, err := dashboard.New(diagSvc, catalog, dashboard.Options{
		AppName: opts.Config.Log.App,
		Logger:  log.With(map[string]any{"component": "dashboard"}),
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	// Rutas por módulo
	page.RegisterRoutes(r)
	charts.RegisterRoutes(r, catalog)
	diagnostics.RegisterRoutes(r, diagSvc, xlsx.Write)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r, nil
}

// NewNotifier arma el mailer SMTP. Si faltan credenciales devuelve un notifier que
// siempre informa "config" junto con el error, para que el caller decida si arrancar.
func NewNotifier(mc config.MailConfig) (notifier.Notifier, error) {
	if err := mc.Validate(); err != nil {
		return notifier.Unavailable{Reason: err}, err
	}
	m, err := smtpmail.New(smtpmail.Config{
		Host:      mc.Host,
		Port:      mc.Port,
		Username:  mc.User,
		Password:  mc.Password,
		Recipient: mc.Recipient,
		Timeout:   mc.Timeout,
	})
	if err != nil {
		return notifier.Unavailable{Reason: err}, err
	}
	return m, nil
}
