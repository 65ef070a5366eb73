package main

import (
	"log"
	"net/http"
	"os"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/controllers"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/logger"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/notify"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Load scheduling settings and connect to the database
	settings := config.Load()
	config.InitDB()

	// Wire the route scheduler behind the handlers
	controllers.InitScheduler(config.DB, settings, notify.LogNotifier{})

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = "0.0.0.0:" + port
	}
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
