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

	"github.com/medbook/bookd/internal/config"
	"github.com/medbook/bookd/internal/domain/account"
	"github.com/medbook/bookd/internal/domain/customer"
	"github.com/medbook/bookd/internal/domain/doctor"
	"github.com/medbook/bookd/internal/domain/hospital"
	"github.com/medbook/bookd/internal/domain/image"
	"github.com/medbook/bookd/internal/domain/order"
	"github.com/medbook/bookd/internal/domain/pack"
	"github.com/medbook/bookd/internal/domain/slot"
	"github.com/medbook/bookd/internal/platform/apperror"
	"github.com/medbook/bookd/internal/platform/auth"
	"github.com/medbook/bookd/internal/platform/db"
	"github.com/medbook/bookd/internal/platform/jobs"
	"github.com/medbook/bookd/internal/platform/middleware"
	"github.com/medbook/bookd/internal/platform/notify"
	"github.com/medbook/bookd/internal/platform/storage"
)

// hospitalDirectory adapts the hospital repository to the existence
// checks the doctor and pack services need, avoiding circular imports.
type hospitalDirectory struct {
	hospitals hospital.Repository
}

func (d hospitalDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := d.hospitals.GetByID(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ownerDirectory adapts the doctor and pack repositories to
// slot.OwnerDirectory.
type ownerDirectory struct {
	doctors doctor.Repository
	packs   pack.Repository
}

func (d ownerDirectory) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := d.doctors.GetByID(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d ownerDirectory) PackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := d.packs.GetByID(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// customerDirectory projects customer profiles into the slim shape the
// booking service works with.
type customerDirectory struct {
	customers customer.Repository
}

func (d customerDirectory) GetByUserID(ctx context.Context, userID uuid.UUID) (*order.Customer, error) {
	c, err := d.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return projectCustomer(c), nil
}

func (d customerDirectory) GetByID(ctx context.Context, id uuid.UUID) (*order.Customer, error) {
	c, err := d.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return projectCustomer(c), nil
}

func projectCustomer(c *customer.Customer) *order.Customer {
	out := &order.Customer{ID: c.ID, Name: c.Name}
	if c.Email != nil {
		out.Email = *c.Email
	}
	return out
}

// addressResolver walks from a slot owner to its hospital so bookings
// can snapshot the visit address.
type addressResolver struct {
	doctors   doctor.Repository
	packs     pack.Repository
	hospitals hospital.Repository
}

func (r addressResolver) OwnerAddress(ctx context.Context, owner slot.Owner) (string, error) {
	var hospitalID uuid.UUID
	switch owner.Kind {
	case slot.OwnerDoctor:
		d, err := r.doctors.GetByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		hospitalID = d.HospitalID
	case slot.OwnerPack:
		p, err := r.packs.GetByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		hospitalID = p.HospitalID
	default:
		return "", apperror.Errorf(apperror.Internal, "unknown owner kind %q", owner.Kind)
	}

	h, err := r.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		return "", err
	}
	return h.Address, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookd",
		Short: "Hospital appointment booking API server",
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
		Short: "Start the booking API server",
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
			pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
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
			pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
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

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET not set; running with permissive development auth")
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.Middleware([]byte(cfg.JWTSecret), auth.Skipper))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// Notification outbox. Domain services enqueue, the worker delivers.
	notifyRepo := notify.NewRepoPG(pool)
	notifier := notify.NewService(notifyRepo)

	var provider notify.Provider
	switch cfg.NotifyProvider {
	case "webhook":
		provider = notify.NewWebhookProvider(cfg.NotifyWebhookURL)
	case "smtp":
		provider = notify.SMTPProvider{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	default:
		provider = notify.LogProvider{Logger: logger}
	}
	worker := notify.NewWorker(notifyRepo, provider, 15*time.Second, logger)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	go worker.Run(workerCtx)

	// Token issuer
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)

	// -- Repositories --
	hospitalRepo := hospital.NewRepoPG(pool)
	departmentRepo := hospital.NewDepartmentRepoPG(pool)
	doctorRepo := doctor.NewRepoPG(pool)
	packRepo := pack.NewRepoPG(pool)
	customerRepo := customer.NewRepoPG(pool)
	slotRepo := slot.NewRepoPG(pool)
	orderRepo := order.NewRepoPG(pool)
	userRepo := account.NewRepoPG(pool)

	// -- Services --
	hospitals := hospitalDirectory{hospitals: hospitalRepo}

	hospitalSvc := hospital.NewService(hospitalRepo, departmentRepo)
	doctorSvc := doctor.NewService(doctorRepo, hospitals)
	packSvc := pack.NewService(packRepo, hospitals)
	customerSvc := customer.NewService(customerRepo)
	slotSvc := slot.NewService(slotRepo, ownerDirectory{doctors: doctorRepo, packs: packRepo}, orderRepo, logger)
	orderSvc := order.NewService(orderRepo, db.TxRunner{Pool: pool}, slotRepo,
		customerDirectory{customers: customerRepo},
		addressResolver{doctors: doctorRepo, packs: packRepo, hospitals: hospitalRepo},
		notifier, logger)
	accountSvc := account.NewService(userRepo, tokens, notifier, logger)

	// -- Handlers --
	hospital.NewHandler(hospitalSvc).RegisterRoutes(apiV1)
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)
	pack.NewHandler(packSvc).RegisterRoutes(apiV1)
	customer.NewHandler(customerSvc).RegisterRoutes(apiV1)
	slot.NewHandler(slotSvc).RegisterRoutes(apiV1)
	order.NewHandler(orderSvc).RegisterRoutes(apiV1)
	account.NewHandler(accountSvc).RegisterRoutes(apiV1)

	// Image uploads need a blob backend; without one the endpoints stay off.
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		imageRepo := image.NewRepoPG(pool)
		image.NewHandler(image.NewService(imageRepo, store)).RegisterRoutes(apiV1)
	} else {
		logger.Warn().Msg("MINIO_ENDPOINT not set; image upload endpoints disabled")
	}

	// Scheduled maintenance
	runner := jobs.NewRunner(logger)
	if err := runner.Register("0 0 * * *", "reject-stale-bookings", func(ctx context.Context) error {
		return orderSvc.RejectStale(ctx, time.Now())
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to register job")
	}
	if err := runner.Register("0 3 * * *", "purge-unactivated-accounts", func(ctx context.Context) error {
		return accountSvc.PurgeUnactivated(ctx, time.Now())
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to register job")
	}
	runner.Start()
	defer runner.Stop()

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		errCh <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
