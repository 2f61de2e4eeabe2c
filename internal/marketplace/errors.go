package marketplace

import "fmt"

// Taxonomie d'erreurs du coeur métier. Toutes sont terminales pour l'appel :
// aucun retry interne, c'est à l'appelant (couche HTTP) de décider.

// ValidationError - entrée malformée ou hors bornes (HTTP 400)
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthorizationError - l'acteur n'a pas les droits sur l'entité visée (HTTP 403)
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// NotFoundError - entité référencée absente (HTTP 404)
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s introuvable: %s", e.Entity, e.ID)
}

// InsufficientStockError - stock insuffisant ou course perdue sur la dernière
// unité (HTTP 400). L'appelant peut retenter avec une quantité ajustée.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour le produit %s: demandé %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

// ConflictError - violation d'unicité, ex: avis en double (HTTP 409)
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}
