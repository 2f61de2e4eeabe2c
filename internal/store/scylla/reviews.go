package scylla

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// InsertReview réserve d'abord le couple (user, product) via LWT sur
// reviews_by_author : deux avis concurrents du même acheteur sur le même
// produit ne passent jamais tous les deux. Retourne false sur doublon.
func (s *Store) InsertReview(ctx context.Context, r *models.Review) (bool, error) {
	applied, err := s.market.Query(
		`INSERT INTO reviews_by_author (user_id, product_id, review_id) VALUES (?, ?, ?) IF NOT EXISTS`,
		r.UserID, r.ProductID, r.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if err := s.market.Query(
		`INSERT INTO reviews (review_id, product_id, user_id, user_name, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProductID, r.UserID, r.UserName, r.Rating, r.Comment, r.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return false, err
	}

	if err := s.market.Query(
		`INSERT INTO reviews_by_product (product_id, review_id, user_id, user_name, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ProductID, r.ID, r.UserID, r.UserName, r.Rating, r.Comment, r.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur indexation reviews_by_product: %v", err)
	}
	return true, nil
}

func (s *Store) GetReview(ctx context.Context, id gocql.UUID) (*models.Review, error) {
	var r models.Review
	err := s.market.Query(
		`SELECT review_id, product_id, user_id, user_name, rating, comment, created_at FROM reviews WHERE review_id = ?`,
		id,
	).WithContext(ctx).Scan(&r.ID, &r.ProductID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "avis", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	if err := s.market.Query(
		`UPDATE reviews SET rating = ?, comment = ? WHERE review_id = ?`,
		r.Rating, r.Comment, r.ID,
	).WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := s.market.Query(
		`UPDATE reviews_by_product SET rating = ?, comment = ? WHERE product_id = ? AND review_id = ?`,
		r.Rating, r.Comment, r.ProductID, r.ID,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur mise à jour reviews_by_product: %v", err)
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, r *models.Review) error {
	if err := s.market.Query(
		`DELETE FROM reviews WHERE review_id = ?`, r.ID,
	).WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := s.market.Query(
		`DELETE FROM reviews_by_product WHERE product_id = ? AND review_id = ?`,
		r.ProductID, r.ID,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur suppression reviews_by_product: %v", err)
	}

	// libère le couple (user, product) : l'auteur peut re-noter plus tard
	if err := s.market.Query(
		`DELETE FROM reviews_by_author WHERE user_id = ? AND product_id = ?`,
		r.UserID, r.ProductID,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur suppression reviews_by_author: %v", err)
	}
	return nil
}

func (s *Store) ListReviews(ctx context.Context, productID gocql.UUID) ([]models.Review, error) {
	iter := s.market.Query(
		`SELECT review_id, user_id, user_name, rating, comment, created_at FROM reviews_by_product WHERE product_id = ?`,
		productID,
	).WithContext(ctx).Iter()

	var reviews []models.Review
	var r models.Review
	for iter.Scan(&r.ID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt) {
		r.ProductID = productID
		reviews = append(reviews, r)
		r = models.Review{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return reviews, nil
}
