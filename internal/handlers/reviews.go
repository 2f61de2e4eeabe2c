package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
)

// CreateReview - avis sur un produit, verrouillé par la porte d'achat.
func (a *API) CreateReview(c *gin.Context) {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	userName := ""
	if u, err := a.Store.GetUser(c.Request.Context(), userID); err == nil {
		userName = u.Name
	}

	review, err := a.Reviews.CreateReview(c.Request.Context(), userID, userName, productID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("⭐ Avis créé: %s pour produit %s (note: %d/5)", review.ID, productID, review.Rating)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Avis créé avec succès",
		"review":  review,
	})
}

// ListReviews - avis d'un produit avec tri et moyenne.
func (a *API) ListReviews(c *gin.Context) {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	sort := marketplace.ReviewSort{
		By:    c.DefaultQuery("sort_by", "created_at"),
		Order: c.DefaultQuery("sort_order", "desc"),
	}

	reviews, err := a.Reviews.ListReviews(c.Request.Context(), productID, sort)
	if err != nil {
		respondError(c, err)
		return
	}

	rating, err := a.Reviews.ProductRating(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":        reviews,
		"total_reviews":  rating.TotalReviews,
		"average_rating": rating.AverageRating,
	})
}

// UpdateReview - auteur uniquement, mise à jour partielle.
func (a *API) UpdateReview(c *gin.Context) {
	reviewID, ok := paramUUID(c, "review_id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var upd marketplace.ReviewUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	review, err := a.Reviews.UpdateReview(c.Request.Context(), reviewID, actor, upd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Avis mis à jour avec succès",
		"review":  review,
	})
}

// DeleteReview - auteur uniquement.
func (a *API) DeleteReview(c *gin.Context) {
	reviewID, ok := paramUUID(c, "review_id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	if err := a.Reviews.DeleteReview(c.Request.Context(), reviewID, actor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avis supprimé avec succès"})
}
