package main

import (
	"log"

	_ "taskboard/docs"
	"taskboard/internal/config"
	"taskboard/internal/server"
)

// @title           Taskboard API
// @version         1.0
// @description     Multi-tenant project management API with role-based access control.

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
		log.Fatalf("server initialization failed: %v", err)
	}

	s.Run()
}
