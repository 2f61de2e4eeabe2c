package marketplace

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Reviews - les avis produits, verrouillés par la porte d'achat : un avis
// exige une commande "delivered" contenant le produit, et un seul avis par
// couple (utilisateur, produit).
type Reviews struct {
	store Store
}

func NewReviews(store Store) *Reviews {
	return &Reviews{store: store}
}

// ReviewUpdate - mise à jour partielle par l'auteur
type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// ReviewSort - tri de listing
type ReviewSort struct {
	By    string // "rating" ou "created_at" (défaut)
	Order string // "asc" ou "desc" (défaut)
}

func (r *Reviews) CreateReview(ctx context.Context, userID gocql.UUID, userName string, productID gocql.UUID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Field: "rating", Reason: "la note doit être un entier entre 1 et 5"}
	}
	if _, err := r.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	purchased, err := r.store.HasDeliveredOrder(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, &AuthorizationError{Reason: "vous devez avoir reçu ce produit pour laisser un avis"}
	}

	review := &models.Review{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	// l'unicité (user, product) est garantie par le store, pas par un simple
	// pré-check applicatif
	inserted, err := r.store.InsertReview(ctx, review)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, &ConflictError{Reason: "vous avez déjà laissé un avis sur ce produit"}
	}
	return review, nil
}

func (r *Reviews) UpdateReview(ctx context.Context, reviewID, actorID gocql.UUID, upd ReviewUpdate) (*models.Review, error) {
	review, err := r.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != actorID {
		return nil, &AuthorizationError{Reason: "seul l'auteur peut modifier cet avis"}
	}

	if upd.Rating != nil {
		if *upd.Rating < 1 || *upd.Rating > 5 {
			return nil, &ValidationError{Field: "rating", Reason: "la note doit être un entier entre 1 et 5"}
		}
		review.Rating = *upd.Rating
	}
	if upd.Comment != nil {
		review.Comment = *upd.Comment
	}

	if err := r.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (r *Reviews) DeleteReview(ctx context.Context, reviewID, actorID gocql.UUID) error {
	review, err := r.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != actorID {
		return &AuthorizationError{Reason: "seul l'auteur peut supprimer cet avis"}
	}
	return r.store.DeleteReview(ctx, review)
}

// ListReviews retourne les avis du produit triés selon s.
func (r *Reviews) ListReviews(ctx context.Context, productID gocql.UUID, s ReviewSort) ([]models.Review, error) {
	if _, err := r.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := r.store.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	asc := s.Order == "asc"
	switch s.By {
	case "rating":
		sort.SliceStable(reviews, func(i, j int) bool {
			if asc {
				return reviews[i].Rating < reviews[j].Rating
			}
			return reviews[i].Rating > reviews[j].Rating
		})
	default: // created_at
		sort.SliceStable(reviews, func(i, j int) bool {
			if asc {
				return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
			}
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		})
	}
	return reviews, nil
}

// ProductRating agrège les avis du produit : moyenne arithmétique arrondie à
// 2 décimales, 0 sans avis.
func (r *Reviews) ProductRating(ctx context.Context, productID gocql.UUID) (models.ProductRating, error) {
	rating := models.ProductRating{ProductID: productID}
	reviews, err := r.store.ListReviews(ctx, productID)
	if err != nil {
		return rating, err
	}
	rating.TotalReviews = len(reviews)
	if len(reviews) == 0 {
		return rating, nil
	}
	var total int
	for _, rev := range reviews {
		total += rev.Rating
	}
	avg := float64(total) / float64(len(reviews))
	rating.AverageRating = math.Round(avg*100) / 100
	return rating, nil
}

// AverageRating - raccourci sur ProductRating.
func (r *Reviews) AverageRating(ctx context.Context, productID gocql.UUID) (float64, error) {
	rating, err := r.ProductRating(ctx, productID)
	return rating.AverageRating, err
}
