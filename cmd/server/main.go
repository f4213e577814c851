// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/CreativeStudio/internal/api"
	"github.com/Corphon/CreativeStudio/internal/app"
	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/di"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

func main() {
	log.Println("🚀 starting CreativeStudio server...")

	// 1. configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("✅ configuration loaded, port: %s", cfg.Port)

	// 2. logging
	if cfg.LogFile != "" {
		if err := utils.InitLogger(cfg.LogFile); err != nil {
			log.Printf("⚠️ structured log file unavailable, logging to stdout: %v", err)
		}
	}
	if !cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.INFO)
	}

	// 3. services, in dependency order
	if err := app.InitServices(cfg); err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
	log.Printf("✅ services initialized: %v", di.GetContainer().GetNames())

	if err := performHealthCheck(); err != nil {
		log.Printf("⚠️ health check warning: %v", err)
	}

	// 4. routes
	router, err := api.SetupRouter(cfg)
	if err != nil {
		log.Fatalf("❌ failed to set up routes: %v", err)
	}

	log.Printf("🌐 listening on port %s", cfg.Port)
	log.Printf("🔗 http://localhost:%s/api/health", cfg.Port)

	setupGracefulShutdown(router, cfg.Port)
}

// performHealthCheck verifies the services every request path needs
func performHealthCheck() error {
	container := di.GetContainer()

	for _, name := range []string{"config", "scripts", "speech", "binder", "sessions"} {
		if container.Get(name) == nil {
			return fmt.Errorf("service not registered: %s", name)
		}
	}

	log.Println("✅ health check passed")
	return nil
}

func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ forced shutdown: %v", err)
	}
	app.Cleanup()

	log.Println("✅ server stopped")
}
