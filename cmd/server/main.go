package main

import (
	"log"

	_ "kanbanflow/docs"
	"kanbanflow/internal/config"
	"kanbanflow/internal/server"
)

// @title           Kanbanflow API
// @version         1.0
// @description     Kanban boards with flow-gated task moves, bulk reorders and live board events.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
