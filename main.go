package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chetan-code/taskflow/internal/config"
	"github.com/chetan-code/taskflow/internal/handler"
	"github.com/chetan-code/taskflow/internal/identity"
	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/repository"
	"github.com/chetan-code/taskflow/internal/session"
)

const sessionName = "taskflow_session"

func setupSlog(level slog.Level) {
	//Json handler that writes to standard out
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true, //adds file name and line number
	})

	//Intialise new logger and set it as default for the server
	logger := slog.New(jsonHandler)
	slog.SetDefault(logger)
}

func initDB(ctx context.Context, cfg config.Config) (*sql.DB, *repository.DocumentRepo, error) {
	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DBURL)
	if err != nil {
		slog.Error("database_intialization_failed", "driver", cfg.DBDriver, "error", err)
		return nil, nil, err
	}

	docs, err := repository.NewDocumentRepo(db, cfg.DBDriver)
	if err != nil {
		slog.Error("repository_creation_failed", "error", err)
		_ = db.Close()
		return nil, nil, err
	}

	slog.Info("database_intialisation_success", "driver", cfg.DBDriver)
	return db, docs, nil
}

func loggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		//logging completion of a request
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", r.RemoteAddr,
			//imp : how long does it take a req to complete
			"duration", time.Since(start).String(),
		)
	})
}

/*
one signed cookie store serves both our session and gothic's temp state
cookie, gothic compares that state on callback to make sure the login
process was completed from this app only (cross site request forgery)
*/
func setupSessions(cfg config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(cfg.SessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookies
	return store
}

// audit log of sign-ins and sign-outs
func auditIdentity(id models.Identity, signedIn bool) {
	event := "audit_sign_out"
	if signedIn {
		event = "audit_sign_in"
	}
	slog.Info(event, "uid", id.ID, "provider", id.Provider)
}

func serve(ctx context.Context, cfg config.Config) error {
	db, docs, err := initDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auth := identity.NewService(
		repository.NewAccountRepo(docs),
		[]byte(cfg.JWTSecret),
		cfg.TokenTTL,
		identity.WithHashCost(cfg.BcryptCost),
	)
	stopAudit := auth.OnIdentityChange(auditIdentity)
	defer stopAudit()

	//athentication
	store := setupSessions(cfg)
	deps := handler.Deps{
		Auth:  auth,
		Tasks: repository.NewTaskRepo(docs),
		DB:    db,
	}
	if cfg.GoogleEnabled() {
		deps.Provider = identity.UseGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, store)
		slog.Info("provider_enabled", "provider", "google")
	}

	h, err := handler.New(deps)
	if err != nil {
		return err
	}
	router := handler.NewRouter(h, session.Provider(store, sessionName, session.WithVerifier(auth)))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           loggerMW(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server_start_success", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server_start_failed", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("server_shutdown")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func migrate(ctx context.Context, cfg config.Config) error {
	db, _, err := initDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("migrate_success", "driver", cfg.DBDriver)
	return nil
}

func newRootCmd() *cobra.Command {
	var envFile string
	var cfg config.Config

	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "Personal task tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				slog.Error("environment_var_load_failure", "error", err)
				return err
			}
			//structure logging
			setupSlog(cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file to load")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the document table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), cfg)
		},
	})
	return root
}

func main() {
	setupSlog(slog.LevelDebug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command_failed", "error", err)
		stop()
		os.Exit(1)
	}
}
