package cmd

import (
	"database/sql"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/tripnest/ms-go-session/app/controller"
	"github.com/tripnest/ms-go-session/app/middleware"
	"github.com/tripnest/ms-go-session/app/repository"
	"github.com/tripnest/ms-go-session/app/service"
	"github.com/tripnest/ms-go-session/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the session service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewEmailHistoryRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	userService := service.NewUserService(db, userRepo, historyRepo, tokenRepo)
	tokenService := service.NewRefreshTokenService(db, tokenRepo)
	issuer := service.NewAccessTokenIssuer(cfg)

	purgeWorker := service.NewPurgeWorker(userService, tokenService, cfg)
	purgeWorker.Start()
	defer purgeWorker.Stop()

	startHTTPServer(cfg, userService, tokenService, issuer)
}

func startHTTPServer(
	cfg *config.Config,
	userService *service.UserService,
	tokenService *service.RefreshTokenService,
	issuer *service.AccessTokenIssuer,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowCredentials: true,
	}))

	authenticator := middleware.NewAuthenticator(issuer, userService)
	e.Use(authenticator.Authenticate)

	authController := controller.NewAuthController(userService, tokenService, issuer, cfg)
	userController := controller.NewUserController(userService)
	loginLimiter := middleware.NewLoginRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)

	auth := e.Group("/auth")
	auth.POST("/login", authController.Login, loginLimiter.Limit)
	auth.POST("/signup", authController.Signup)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/logout", authController.Logout)
	auth.POST("/restore", authController.Restore)

	protected := e.Group("", middleware.DefaultPolicy().Enforce)
	protected.GET("/user", userController.Profile)
	protected.POST("/user/edit", userController.EditProfile)
	protected.POST("/user/delete", userController.SelfDelete)
	protected.GET("/admin", userController.AdminDashboard)
	protected.POST("/admin/create", userController.AdminCreate)
	protected.POST("/admin/edit", userController.AdminEdit)
	protected.POST("/admin/delete", userController.AdminDelete)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutdown signal received")
		e.Close()
	}()

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Info("HTTP server stopped")
	}
}
