package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/outreach-engine/internal/ai"
	"github.com/Vovarama1992/outreach-engine/internal/config"
	"github.com/Vovarama1992/outreach-engine/internal/meetings"
	"github.com/Vovarama1992/outreach-engine/internal/outreach"
	"github.com/Vovarama1992/outreach-engine/internal/storage"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "outreach",
		Short: "Outreach engagement engine",
	}
	root.AddCommand(serveCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func buildOutreach(db *sql.DB, loader *config.Loader) outreach.Service {
	var drafts ai.DraftGenerator
	client, err := ai.NewOpenAIClient()
	if err != nil {
		log.Printf("[ai] drafting disabled: %v", err)
		drafts = ai.Disabled()
	} else {
		drafts = client
	}
	repo := outreach.NewRepo(db)
	return outreach.NewService(repo, drafts, loader.Current)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic recalculation worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loader, err := config.Load()
			if err != nil {
				return err
			}
			cfg := loader.Current()

			db, err := openDB(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			outreachSvc := buildOutreach(db, loader)

			meetingStore := meetings.NewStore(db)
			guard := meetings.NewBookingGuard(meetingStore)
			meetingSvc := meetings.NewService(meetingStore, guard, loader.Current)

			worker := outreach.NewWorker(outreachSvc, func() time.Duration {
				return loader.Current().Sweep.Interval
			})
			go worker.Run(ctx)

			r := chi.NewRouter()
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			}))

			outreach.RegisterRoutes(r, outreach.NewHandler(outreachSvc))
			meetings.RegisterRoutes(r, meetings.NewHandler(meetingSvc))

			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("pong"))
			})

			srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Printf("listening on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one recalculation sweep and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loader, err := config.Load()
			if err != nil {
				return err
			}

			db, err := openDB(ctx, loader.Current().DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := buildOutreach(db, loader)

			report, err := svc.RecalculateAll(ctx)
			if err != nil {
				return err
			}
			log.Printf("sweep done: processed=%d transitions=%d failed=%d",
				report.Processed, report.Transitions, report.Failed)
			return nil
		},
	}
}
