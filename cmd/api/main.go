package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"crashflight/internal/config"
	"crashflight/internal/server"
)

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("[MAIN] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberServer.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("[MAIN] http shutdown error: %v", err)
	}
	if err := fiberServer.Shutdown(); err != nil {
		log.Printf("[MAIN] component shutdown error: %v", err)
	}

	done <- true
}

func main() {
	srv := server.New()
	srv.RegisterFiberRoutes()

	done := make(chan bool, 1)
	go gracefulShutdown(srv, done)

	port := config.Load().Port
	if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Printf("[MAIN] listen error: %v", err)
		os.Exit(1)
	}

	<-done
	log.Println("[MAIN] graceful shutdown complete")
}
