package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
)

// API regroupe les services du coeur métier derrière la couche HTTP.
type API struct {
	Store     marketplace.Store
	Catalog   *marketplace.Catalog
	Orders    *marketplace.Orders
	Reviews   *marketplace.Reviews
	Messaging *marketplace.Messaging
}

func New(store marketplace.Store) *API {
	return &API{
		Store:     store,
		Catalog:   marketplace.NewCatalog(store),
		Orders:    marketplace.NewOrders(store),
		Reviews:   marketplace.NewReviews(store),
		Messaging: marketplace.NewMessaging(store),
	}
}

// respondError traduit la taxonomie du coeur en statuts HTTP :
// 400 validation/stock, 403 autorisation, 404 absent, 409 conflit.
func respondError(c *gin.Context, err error) {
	var (
		validation *marketplace.ValidationError
		authz      *marketplace.AuthorizationError
		notFound   *marketplace.NotFoundError
		stock      *marketplace.InsufficientStockError
		conflict   *marketplace.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &stock):
		c.JSON(http.StatusBadRequest, gin.H{"error": stock.Error()})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}

// actorID extrait l'identifiant de l'acteur posé par le middleware JWT.
func actorID(c *gin.Context) (gocql.UUID, bool) {
	raw := c.GetString("user_id")
	id, err := gocql.ParseUUID(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return gocql.UUID{}, false
	}
	return id, true
}

// paramUUID parse un identifiant d'URL.
func paramUUID(c *gin.Context, name string) (gocql.UUID, bool) {
	id, err := gocql.ParseUUID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return gocql.UUID{}, false
	}
	return id, true
}

// userRef - référence utilisateur dépliée dans les réponses de lecture
type userRef struct {
	ID   gocql.UUID `json:"id"`
	Name string     `json:"name"`
}

func (a *API) userRef(ctx context.Context, id gocql.UUID) userRef {
	ref := userRef{ID: id}
	if u, err := a.Store.GetUser(ctx, id); err == nil {
		ref.Name = u.Name
	}
	return ref
}

// paginate borne page dans [1, totalPages] et retourne la tranche [start:end).
func paginate(total, page, perPage int) (start, end, totalPages int) {
	if perPage < 1 {
		perPage = 12
	}
	totalPages = (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start = (page - 1) * perPage
	end = start + perPage
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}
	return start, end, totalPages
}
