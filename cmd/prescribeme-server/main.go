package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prescribeme/api/internal/config"
	"github.com/prescribeme/api/internal/domain/clinical"
	"github.com/prescribeme/api/internal/domain/identity"
	"github.com/prescribeme/api/internal/domain/notification"
	"github.com/prescribeme/api/internal/domain/portal"
	"github.com/prescribeme/api/internal/domain/prescription"
	"github.com/prescribeme/api/internal/domain/scheduling"
	"github.com/prescribeme/api/internal/platform/auth"
	"github.com/prescribeme/api/internal/platform/db"
	"github.com/prescribeme/api/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "prescribeme-server",
		Short: "PrescribeMe API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo accounts and records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool)
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Token and session plumbing
	codec := auth.NewTokenCodec(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTLMins)*time.Minute)
	sessions := auth.NewSessionStore(auth.NewSessionRepoPG(pool),
		time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour)

	// Services
	identitySvc := identity.NewService(
		identity.NewUserRepoPG(pool),
		identity.NewDoctorRepoPG(pool),
		identity.NewPatientRepoPG(pool),
		codec, sessions,
		func(ctx context.Context, fn func(context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
	)

	notificationSvc := notification.NewService(notification.NewRepoPG(pool))

	clinicalSvc := clinical.NewService(
		clinical.NewConditionRepoPG(pool),
		clinical.NewAllergyRepoPG(pool),
		clinical.NewSurgeryRepoPG(pool),
		clinical.NewImmunizationRepoPG(pool),
		clinical.NewLabResultRepoPG(pool),
		&clinicalDirectory{ids: identitySvc},
	)

	prescriptionSvc := prescription.NewService(
		prescription.NewRepoPG(pool),
		prescription.NewPharmacyRepoPG(pool),
		&prescriptionDirectory{ids: identitySvc},
		notificationSvc,
	)

	schedulingSvc := scheduling.NewService(
		scheduling.NewRepoPG(pool),
		&schedulingDirectory{ids: identitySvc},
		notificationSvc,
	)

	portalSvc := portal.NewService(identitySvc, prescriptionSvc, schedulingSvc, clinicalSvc)

	// Routes
	authn := auth.Middleware(codec, identitySvc)
	apiV1 := e.Group("/api/v1")

	identity.NewHandler(identitySvc, !cfg.IsDev(), cfg.RefreshTokenTTLSeconds()).RegisterRoutes(apiV1, authn)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1, authn)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(apiV1, authn)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1, authn)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1, authn)
	portal.NewHandler(portalSvc).RegisterRoutes(apiV1, authn)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "PrescribeMe API",
			"docs":    "/api/v1",
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// The domain packages each declare a narrow Directory interface with their
// own sentinel errors. These adapters satisfy them over the identity
// service, translating its errors, so the domains never import each other.

type clinicalDirectory struct {
	ids *identity.Service
}

func (d *clinicalDirectory) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.PatientIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, clinical.ErrPatientNotFound
	}
	return id, err
}

func (d *clinicalDirectory) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.DoctorIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, clinical.ErrDoctorNotFound
	}
	return id, err
}

func (d *clinicalDirectory) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	_, err := d.ids.GetPatient(ctx, patientID)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type prescriptionDirectory struct {
	ids *identity.Service
}

func (d *prescriptionDirectory) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.PatientIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, prescription.ErrPatientNotFound
	}
	return id, err
}

func (d *prescriptionDirectory) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.DoctorIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, prescription.ErrDoctorNotFound
	}
	return id, err
}

func (d *prescriptionDirectory) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	_, err := d.ids.GetPatient(ctx, patientID)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *prescriptionDirectory) UserIDForPatient(ctx context.Context, patientID uuid.UUID) (uuid.UUID, error) {
	p, err := d.ids.GetPatient(ctx, patientID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, prescription.ErrPatientNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return p.UserID, nil
}

type schedulingDirectory struct {
	ids *identity.Service
}

func (d *schedulingDirectory) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.PatientIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, scheduling.ErrPatientNotFound
	}
	return id, err
}

func (d *schedulingDirectory) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := d.ids.DoctorIDForUser(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, scheduling.ErrDoctorNotFound
	}
	return id, err
}

func (d *schedulingDirectory) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	_, err := d.ids.GetDoctor(ctx, doctorID)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
