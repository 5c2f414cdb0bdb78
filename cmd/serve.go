package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prashant564/Courses24-API/handlers"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/services"
	"github.com/prashant564/Courses24-API/utils"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		logging.Logger.Errorf("Event ID: MONGO_CONNECT_FAILED, Description: %v", err)
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Logger.Errorf("Event ID: MONGO_DISCONNECT_FAILED, Description: %v", err)
		}
	}()

	geocoder, closeCache := newGeocoder(ctx, cfg)
	defer closeCache()

	validator := utils.NewValidator()
	bootcampRepo := repositories.NewBootcampRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	userRepo := repositories.NewUserRepository(db)

	h := &handlers.Handler{
		Auth:      services.NewAuthService(userRepo, utils.NewJWTManager(cfg.JWTSecret, cfg.JWTExpire), newMailer(cfg), validator, cfg.ResetTokenExpire),
		Bootcamps: services.NewBootcampService(bootcampRepo, courseRepo, reviewRepo, geocoder, validator),
		Courses:   services.NewCourseService(courseRepo, bootcampRepo, validator),
		Reviews:   services.NewReviewService(reviewRepo, bootcampRepo, validator),
		Users:     services.NewUserService(userRepo, validator),
		Cookie: handlers.CookieConfig{
			Expire: cfg.JWTCookieExpire,
			Secure: cfg.IsProduction(),
		},
		PublicURL: cfg.PublicURL,
	}

	router := handlers.NewRouter(h, handlers.RouterOptions{
		CORSOrigin:      cfg.CORSOrigin,
		RateLimitWindow: cfg.RateLimitWindow,
		RateLimitMax:    cfg.RateLimitMax,
		TrustedProxies:  cfg.TrustedProxies,
		Health: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: Server running in %s mode on port %s", cfg.Env, cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logging.Logger.Errorf("Event ID: SERVER_FAILED, Description: Listener stopped: %v", err)
		return err
	case <-ctx.Done():
	}

	logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
		return err
	}
	return nil
}
