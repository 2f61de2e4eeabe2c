package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EPHRANCINA/farm-to-market-django/internal/cache"
	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
	"github.com/EPHRANCINA/farm-to-market-django/internal/utils"
)

// CreateOrder - l'acheteur passe commande sur une ou plusieurs lignes.
func (a *API) CreateOrder(c *gin.Context) {
	buyerID, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		ShippingAddress string                  `json:"shipping_address"`
		Items           []marketplace.LineInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	order, err := a.Orders.CreateOrder(c.Request.Context(), buyerID, c.GetString("role"), req.ShippingAddress, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	// le stock a bougé, le listing en cache est périmé
	cache.InvalidateProducts(c.Request.Context())

	log.Printf("🧾 Commande %s créée par %s (%.2f€)", order.ID, buyerID, order.TotalAmount)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande créée avec succès",
		"order":   order,
	})
}

func (a *API) GetOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	order, err := a.Orders.GetOrder(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"buyer": a.userRef(c.Request.Context(), order.BuyerID),
	})
}

// ListOrders - acheteurs : leurs commandes ; fermiers : celles qui contiennent
// leurs produits. Filtre ?status= optionnel.
func (a *API) ListOrders(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	orders, err := a.Orders.ListOrders(c.Request.Context(), actor, c.GetString("role"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

// UpdateOrderStatus pilote la machine à états. "completed" est accepté comme
// alias historique de "delivered".
func (a *API) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'status' est obligatoire"})
		return
	}
	if req.Status == "completed" {
		req.Status = models.OrderStatusDelivered
	}

	order, err := a.Orders.UpdateStatus(c.Request.Context(), id, actor, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	if order.Status == models.OrderStatusCancelled {
		// le stock restitué rend le cache périmé
		cache.InvalidateProducts(c.Request.Context())
	}

	// notification acheteur, hors du chemin critique
	if buyer, err := a.Store.GetUser(c.Request.Context(), order.BuyerID); err == nil {
		o := *order
		go func() {
			if err := utils.SendOrderStatusEmail(buyer.Email, o); err != nil {
				log.Printf("⚠️ Échec envoi e-mail commande %s: %v", o.ID, err)
			}
		}()
	}

	log.Printf("📦 Commande %s → %s", order.ID, order.Status)
	c.JSON(http.StatusOK, gin.H{
		"message": "Statut de la commande mis à jour",
		"order":   order,
	})
}
