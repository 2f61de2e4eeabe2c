package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EPHRANCINA/farm-to-market-django/internal/cache"
	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
	"github.com/EPHRANCINA/farm-to-market-django/internal/services"
)

// CreateProduct - réservé aux fermiers.
func (a *API) CreateProduct(c *gin.Context) {
	sellerID, ok := actorID(c)
	if !ok {
		return
	}
	if c.GetString("role") != models.RoleFarmer {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seuls les fermiers peuvent créer des produits"})
		return
	}

	var in marketplace.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	p, err := a.Catalog.CreateProduct(c.Request.Context(), sellerID, in)
	if err != nil {
		respondError(c, err)
		return
	}

	// indexation et invalidation hors du chemin critique
	go services.IndexProduct(*p)
	cache.InvalidateProducts(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{
		"message": "Produit créé avec succès",
		"product": p,
	})
}

// ListProducts - listing filtré et paginé du catalogue.
func (a *API) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	filter := marketplace.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &f
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &f
		}
	}

	unfiltered := filter == (marketplace.ProductFilter{})

	var products []models.Product
	if unfiltered {
		products = cache.GetCachedProducts(ctx)
	}
	if products == nil {
		var err error
		products, err = a.Catalog.ListProducts(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		if unfiltered {
			cache.SetCachedProducts(ctx, products)
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "12"))
	start, end, totalPages := paginate(len(products), page, perPage)

	c.JSON(http.StatusOK, gin.H{
		"products":    products[start:end],
		"total":       len(products),
		"total_pages": totalPages,
	})
}

// SearchProducts - recherche Elasticsearch avec repli sur le scan ScyllaDB.
func (a *API) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}
	ctx := c.Request.Context()

	// 1️⃣ Elasticsearch en priorité
	ids, err := services.SearchProductIDs(query)
	if err == nil && len(ids) > 0 {
		var products []models.Product
		for _, id := range ids {
			// relecture ScyllaDB pour le stock à jour
			if p, err := a.Catalog.GetProduct(ctx, id); err == nil {
				products = append(products, *p)
			}
		}
		c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
		return
	}

	// 2️⃣ Repli : filtre en mémoire sur le nom
	products, err := a.Catalog.ListProducts(ctx, marketplace.ProductFilter{Search: query})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (a *API) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	p, err := a.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": p,
		"seller":  a.userRef(c.Request.Context(), p.SellerID),
	})
}

// UpdateProduct - fusion partielle, vendeur uniquement.
func (a *API) UpdateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var upd models.ProductUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	p, err := a.Catalog.UpdateProduct(c.Request.Context(), id, actor, upd)
	if err != nil {
		respondError(c, err)
		return
	}

	go services.IndexProduct(*p)
	cache.InvalidateProducts(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit mis à jour avec succès",
		"product": p,
	})
}

func (a *API) DeleteProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	if err := a.Catalog.DeleteProduct(c.Request.Context(), id, actor); err != nil {
		respondError(c, err)
		return
	}

	go services.RemoveProduct(id)
	cache.InvalidateProducts(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé avec succès"})
}

// UploadProductImage pousse l'image dans MinIO et enregistre le chemin objet
// sur la fiche produit.
func (a *API) UploadProductImage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' manquant"})
		return
	}

	objectName, err := services.UploadProductImage(c.Request.Context(), id, file)
	if err != nil {
		log.Printf("❌ Erreur upload MinIO: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'upload"})
		return
	}

	p, err := a.Catalog.UpdateProduct(c.Request.Context(), id, actor, models.ProductUpdate{ImageURL: &objectName})
	if err != nil {
		respondError(c, err)
		return
	}

	signedURL := ""
	if u, err := services.GenerateSignedURL(c.Request.Context(), objectName, 24*time.Hour); err == nil {
		signedURL = u
	}

	cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":   "Image enregistrée",
		"product":   p,
		"image_url": signedURL,
	})
}
