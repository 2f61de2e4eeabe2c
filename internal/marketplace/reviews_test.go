package marketplace_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// prépare un acheteur ayant reçu le produit, donc autorisé à noter.
func reviewFixture(t *testing.T) (*fixture, models.User, models.User, *models.Product) {
	t.Helper()
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Fromage de chèvre", 7.5, 20)
	order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
	f.deliver(t, order.ID, farmer)
	return f, farmer, buyer, p
}

func TestCreateReviewRequiresDelivery(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Fromage", 7.5, 20)
	ctx := context.Background()

	var aerr *marketplace.AuthorizationError

	// aucune commande
	_, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 5, "excellent")
	if !errors.As(err, &aerr) {
		t.Fatalf("sans commande: attendu AuthorizationError, reçu %v", err)
	}

	// commande en cours mais pas livrée
	order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
	if _, err := f.orders.UpdateStatus(ctx, order.ID, farmer.ID, models.OrderStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	_, err = f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 5, "excellent")
	if !errors.As(err, &aerr) {
		t.Fatalf("commande confirmée seulement: attendu AuthorizationError, reçu %v", err)
	}

	// livraison effectuée : l'avis passe
	for _, status := range []string{models.OrderStatusShipped, models.OrderStatusDelivered} {
		if _, err := f.orders.UpdateStatus(ctx, order.ID, farmer.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}
	review, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 5, "excellent")
	if err != nil {
		t.Fatalf("après livraison: %v", err)
	}
	if review.Rating != 5 {
		t.Errorf("note = %d, attendu 5", review.Rating)
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	f, _, buyer, p := reviewFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 42} {
		_, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, rating, "")
		var verr *marketplace.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("note %d: attendu ValidationError, reçu %v", rating, err)
		}
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	f, _, buyer, p := reviewFixture(t)
	ctx := context.Background()

	if _, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 4, "bien"); err != nil {
		t.Fatalf("premier avis: %v", err)
	}

	_, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 2, "finalement non")
	var cerr *marketplace.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("doublon: attendu ConflictError, reçu %v", err)
	}
}

// Deux requêtes simultanées du même auteur : une seule passe.
func TestCreateReviewDuplicateRace(t *testing.T) {
	f, _, buyer, p := reviewFixture(t)
	ctx := context.Background()

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 4, "bien")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var cerr *marketplace.ConflictError
			if !errors.As(err, &cerr) {
				t.Fatalf("erreur inattendue: %v", err)
			}
			conflicts++
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("succès = %d, conflits = %d, attendu 1/1", wins, conflicts)
	}
}

func TestUpdateDeleteReviewAuthorOnly(t *testing.T) {
	f, farmer, buyer, p := reviewFixture(t)
	ctx := context.Background()

	review, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 3, "correct")
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	var aerr *marketplace.AuthorizationError
	newRating := 1
	if _, err := f.reviews.UpdateReview(ctx, review.ID, farmer.ID, marketplace.ReviewUpdate{Rating: &newRating}); !errors.As(err, &aerr) {
		t.Errorf("modification par un tiers: attendu AuthorizationError, reçu %v", err)
	}
	if err := f.reviews.DeleteReview(ctx, review.ID, farmer.ID); !errors.As(err, &aerr) {
		t.Errorf("suppression par un tiers: attendu AuthorizationError, reçu %v", err)
	}

	newRating = 5
	updated, err := f.reviews.UpdateReview(ctx, review.ID, buyer.ID, marketplace.ReviewUpdate{Rating: &newRating})
	if err != nil {
		t.Fatalf("UpdateReview par l'auteur: %v", err)
	}
	if updated.Rating != 5 || updated.Comment != "correct" {
		t.Errorf("avis = %d/%q, attendu 5/correct", updated.Rating, updated.Comment)
	}

	if err := f.reviews.DeleteReview(ctx, review.ID, buyer.ID); err != nil {
		t.Fatalf("DeleteReview par l'auteur: %v", err)
	}
}

// Après suppression, l'auteur peut reposter un avis sur le même produit.
func TestDeleteReviewFreesSlot(t *testing.T) {
	f, _, buyer, p := reviewFixture(t)
	ctx := context.Background()

	review, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 2, "déçu")
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if err := f.reviews.DeleteReview(ctx, review.ID, buyer.ID); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if _, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, 4, "je retente"); err != nil {
		t.Fatalf("second avis après suppression: %v", err)
	}
}

func TestAverageRating(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	p := f.product(t, farmer, "Confiture", 5.0, 50)
	ctx := context.Background()

	// sans avis : moyenne zéro
	avg, err := f.reviews.AverageRating(ctx, p.ID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 0 {
		t.Errorf("moyenne sans avis = %v, attendu 0", avg)
	}

	for i, rating := range []int{4, 5, 3} {
		buyer := f.user(t, []string{"anne", "luc", "zoe"}[i], models.RoleBuyer)
		order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
		f.deliver(t, order.ID, farmer)
		if _, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, rating, ""); err != nil {
			t.Fatalf("CreateReview(%d): %v", rating, err)
		}
	}

	avg, err = f.reviews.AverageRating(ctx, p.ID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 4.0 {
		t.Errorf("moyenne = %v, attendu 4.0", avg)
	}
}

func TestAverageRatingRounding(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	p := f.product(t, farmer, "Cidre", 4.5, 50)
	ctx := context.Background()

	// 5 + 4 + 4 = 13 / 3 = 4.333... → 4.33
	for i, rating := range []int{5, 4, 4} {
		buyer := f.user(t, []string{"anne", "luc", "zoe"}[i], models.RoleBuyer)
		order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
		f.deliver(t, order.ID, farmer)
		if _, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, rating, ""); err != nil {
			t.Fatalf("CreateReview(%d): %v", rating, err)
		}
	}

	avg, err := f.reviews.AverageRating(ctx, p.ID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 4.33 {
		t.Errorf("moyenne = %v, attendu 4.33", avg)
	}
}

func TestListReviewsSort(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	p := f.product(t, farmer, "Beurre", 3.0, 50)
	ctx := context.Background()

	for i, rating := range []int{2, 5, 3} {
		buyer := f.user(t, []string{"anne", "luc", "zoe"}[i], models.RoleBuyer)
		order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
		f.deliver(t, order.ID, farmer)
		if _, err := f.reviews.CreateReview(ctx, buyer.ID, buyer.Name, p.ID, rating, ""); err != nil {
			t.Fatalf("CreateReview(%d): %v", rating, err)
		}
	}

	asc, err := f.reviews.ListReviews(ctx, p.ID, marketplace.ReviewSort{By: "rating", Order: "asc"})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	got := []int{asc[0].Rating, asc[1].Rating, asc[2].Rating}
	if got[0] != 2 || got[1] != 3 || got[2] != 5 {
		t.Errorf("tri rating asc = %v, attendu [2 3 5]", got)
	}

	desc, err := f.reviews.ListReviews(ctx, p.ID, marketplace.ReviewSort{By: "rating", Order: "desc"})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if desc[0].Rating != 5 || desc[2].Rating != 2 {
		t.Errorf("tri rating desc = [%d %d %d], attendu [5 3 2]", desc[0].Rating, desc[1].Rating, desc[2].Rating)
	}
}

func TestListReviewsUnknownProduct(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	p := f.product(t, farmer, "Navets", 2.0, 3)
	ctx := context.Background()

	if err := f.catalog.DeleteProduct(ctx, p.ID, farmer.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	_, err := f.reviews.ListReviews(ctx, p.ID, marketplace.ReviewSort{})
	var nerr *marketplace.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("attendu NotFoundError, reçu %v", err)
	}
}
