package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/EPHRANCINA/farm-to-market-django/internal/handlers"
	"github.com/EPHRANCINA/farm-to-market-django/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, api *handlers.API) {
	r.Use(cors.New(corsConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")

	// Auth
	auth := apiGroup.Group("/auth")
	auth.POST("/register", api.Register)
	auth.POST("/login", api.Login)
	auth.GET("/me", middleware.AuthRequired(), api.Me)

	// Catalogue - lecture publique, écriture authentifiée
	products := apiGroup.Group("/products")
	products.GET("", api.ListProducts)
	products.GET("/search", api.SearchProducts)
	products.GET("/:id", api.GetProduct)
	products.GET("/:id/reviews", api.ListReviews)

	productsAuth := apiGroup.Group("/products", middleware.AuthRequired())
	productsAuth.POST("", api.CreateProduct)
	productsAuth.PUT("/:id", api.UpdateProduct)
	productsAuth.DELETE("/:id", api.DeleteProduct)
	productsAuth.POST("/:id/image", api.UploadProductImage)
	productsAuth.POST("/:id/reviews", api.CreateReview)

	// Avis - édition par l'auteur
	reviews := apiGroup.Group("/reviews", middleware.AuthRequired())
	reviews.PUT("/:review_id", api.UpdateReview)
	reviews.DELETE("/:review_id", api.DeleteReview)

	// Commandes
	orders := apiGroup.Group("/orders", middleware.AuthRequired())
	orders.POST("", api.CreateOrder)
	orders.GET("", api.ListOrders)
	orders.GET("/:id", api.GetOrder)
	orders.PUT("/:id/status", api.UpdateOrderStatus)

	// Messagerie
	messages := apiGroup.Group("/messages", middleware.AuthRequired())
	messages.POST("", api.SendMessage)
	messages.GET("", api.ListMessages)
	messages.GET("/conversations", api.ListConversations)
	messages.PUT("/:id/read", api.MarkMessageRead)
	messages.GET("/unread/count", api.UnreadCount)
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
