package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"quiz-session-backend/internal/bank"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/internal/controller"
	"quiz-session-backend/internal/db"
	"quiz-session-backend/internal/repository"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/pkg/middleware"
	"quiz-session-backend/utilities"
)

func main() {
	printStartUpBanner()

	// Load XML configuration from file.
	configPath := "config.xml"
	if v := os.Getenv("QUIZ_CONFIG"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := utilities.SetupLogging(utilities.LogOptions{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Debug:      cfg.RequestDump,
	}); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	if cfg.Context.TimeZone != "" {
		if loc, err := time.LoadLocation(cfg.Context.TimeZone); err == nil {
			time.Local = loc
		} else {
			utilities.Warn("unknown time zone %q: %v", cfg.Context.TimeZone, err)
		}
	}

	if err := run(cfg); err != nil {
		utilities.Error("%v", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it is stopped by a signal or fails.
func run(cfg *config.APIConfig) error {
	utilities.ConfigureTokens(cfg.Authentication.JWTSecret, time.Duration(cfg.Authentication.TokenTTL)*time.Minute)

	questions, err := bank.Load(cfg.Quiz.BankPath)
	if err != nil {
		return fmt.Errorf("failed to load question bank: %w", err)
	}
	utilities.Info("loaded %d questions", len(questions))

	// Create services.
	authService, err := service.NewAuthService(cfg.Authentication)
	if err != nil {
		return fmt.Errorf("failed to configure authentication: %w", err)
	}
	utilities.Info("password check uses %s", authService.Method())

	quizService := service.NewQuizService(questions, service.QuizServiceOptions{
		CountOptions:   cfg.Quiz.CountOptions,
		DefaultCount:   cfg.Quiz.DefaultCount,
		SessionTimeout: time.Duration(cfg.Quiz.SessionTimeout) * time.Minute,
		MaxSessions:    cfg.Quiz.MaxSessions,
		Events:         utilities.GlobalEventBus,
	})

	reportOpts, err := loadReportFonts(cfg.Quiz)
	if err != nil {
		return err
	}
	reportService := service.NewReportService(reportOpts)

	telemetryService := service.NewTelemetryService(cfg.Telemetry, nil)
	telemetryService.Subscribe(utilities.GlobalEventBus)

	svc := controller.Services{
		Auth:   authService,
		Quiz:   quizService,
		Report: reportService,
	}

	// Initialize DB only when this instance also collects results.
	if cfg.Telemetry.Collector {
		gdb, err := db.InitDBFromConfig(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				utilities.Warn("close database: %v", err)
			}
		}()
		svc.Collector = service.NewCollectorService(repository.NewResultRepository(gdb))
		utilities.Info("result collector enabled")
	}

	// Initialize Gin router.
	r := gin.Default()
	if err := controller.ConfigureEngine(r, cfg); err != nil {
		return fmt.Errorf("invalid CONTEXT/TRUSTED_PROXIES: %w", err)
	}

	// CORS configuration.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	controller.RegisterRoutes(r, cfg, svc)

	// Start server on the host and port specified in the XML config.
	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.Context.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Context.MaxConnections)
	}

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		utilities.Info("listening on %s", addr)
		serveErr <- srv.Serve(ln)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-quit:
	}

	utilities.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utilities.Error("shutdown: %v", err)
	}
	// Let in-flight telemetry finish before exit.
	utilities.GlobalEventBus.Wait()
	return nil
}

// loadReportFonts reads the optional review PDF fonts named in QUIZ.
func loadReportFonts(q config.QuizConfig) (service.ReportOptions, error) {
	opts := service.ReportOptions{Title: "Quiz Review"}
	if q.ReportFont == "" {
		return opts, nil
	}
	font, err := os.ReadFile(q.ReportFont)
	if err != nil {
		return opts, fmt.Errorf("read QUIZ/REPORT_FONT: %w", err)
	}
	opts.Font = font
	if q.ReportFontBold != "" {
		if opts.BoldFont, err = os.ReadFile(q.ReportFontBold); err != nil {
			return opts, fmt.Errorf("read QUIZ/REPORT_FONT_BOLD: %w", err)
		}
	}
	return opts, nil
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("QUIZ", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("QUIZ SESSION API (v%s)\n\n", "1.0.0")
}
