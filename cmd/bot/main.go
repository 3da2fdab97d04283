package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	// Application Layer
	appService "remindbot/internal/application/service"

	// Infrastructure Layer
	"remindbot/internal/infrastructure/database/sqlite"
	"remindbot/internal/infrastructure/scheduler"
	"remindbot/internal/infrastructure/telegram"

	// Interfaces Layer
	apiHandler "remindbot/internal/interfaces/api/handler"
	"remindbot/internal/interfaces/api/router"
	"remindbot/internal/interfaces/bot"

	// Packages
	appLogger "remindbot/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func gracefulShutdown(apiServer *http.Server, schedulerSvc appService.SchedulerService, stopPolling context.CancelFunc, log appLogger.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop consuming Telegram updates first so no new commands arrive.
	stopPolling()

	// Stop the timers; waits for in-flight ticks to finish.
	schedulerSvc.Stop()
	log.Info("Scheduler stopped.")

	if err := sqlite.CloseDB(); err != nil {
		log.Error("Error closing database", err)
	} else {
		log.Info("Database connection closed.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	done <- true
}

func main() {
	// --- Initialization ---
	log := appLogger.New()
	log.Info("Logger initialized.")

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
		log.Warn("PORT environment variable not set, defaulting to 8080")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Error("Invalid PORT environment variable", err)
		os.Exit(1)
	}

	// --- Infrastructure ---
	db := sqlite.NewDB()
	reminderRepo := sqlite.NewReminderRepository(db)
	log.Info("Database and repositories initialized.")

	tg := telegram.NewClient(log)
	cronScheduler := scheduler.NewScheduler(log)

	// --- Application Services ---
	schedulerSvc := appService.NewSchedulerService(cronScheduler, reminderRepo, log)

	// --- Transport ---
	botHandler := bot.NewHandler(tg, schedulerSvc, log)
	// Wire delivery after construction; handler needs the service, the service
	// needs the handler's DeliverReminder.
	schedulerSvc.SetDeliveryHandler(botHandler.DeliverReminder)

	// --- Restore timers from persisted state ---
	if err := schedulerSvc.InitializeSchedules(context.Background()); err != nil {
		// Log the error but continue; commands can still re-enable chats.
		log.Error("Failed to initialize timers on startup", err)
	}

	// --- Ops API ---
	statusHandler := apiHandler.NewStatusHandler(db, reminderRepo, log)
	echoRouter := router.NewRouter(&router.Config{
		StatusHandler: statusHandler,
		Logger:        log,
	})
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start update loop, server & shutdown handling ---
	pollCtx, stopPolling := context.WithCancel(context.Background())
	go botHandler.Run(pollCtx)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, schedulerSvc, stopPolling, log, done)

	log.Info(fmt.Sprintf("Ops API listening on port %d", port))
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("HTTP server ListenAndServe error", err)
		os.Exit(1)
	}

	<-done
	log.Info("Graceful shutdown complete.")
}
