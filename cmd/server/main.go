package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/EPHRANCINA/farm-to-market-django/internal/config"
	"github.com/EPHRANCINA/farm-to-market-django/internal/database"
	"github.com/EPHRANCINA/farm-to-market-django/internal/handlers"
	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/routes"
	"github.com/EPHRANCINA/farm-to-market-django/internal/store/memstore"
	"github.com/EPHRANCINA/farm-to-market-django/internal/store/scylla"
)

func main() {
	config.Load()

	store := openStore()
	api := handlers.New(store)

	r := gin.Default()
	routes.RegisterRoutes(r, api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur farm-to-market lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté:", err)
	}
}

// openStore choisit le backend : mémoire pour le dev local, ScyllaDB sinon.
func openStore() marketplace.Store {
	if os.Getenv("STORE_BACKEND") == "memory" {
		log.Println("⚠️ Backend mémoire actif (données volatiles)")
		return memstore.New()
	}

	database.ConnectDatabases()

	users, err := database.GetUsersSession()
	if err != nil {
		log.Fatal("❌ Session ScyllaDB users indisponible:", err)
	}
	market, err := database.GetMarketSession()
	if err != nil {
		log.Fatal("❌ Session ScyllaDB market indisponible:", err)
	}
	return scylla.New(users, market)
}
