package marketplace_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

func TestCreateOrderMultiLine(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	tomates := f.product(t, farmer, "Tomates", 3.5, 10)
	oeufs := f.product(t, farmer, "Oeufs", 0.5, 30)

	order := f.order(t, buyer,
		marketplace.LineInput{ProductID: tomates.ID, Quantity: 2},
		marketplace.LineInput{ProductID: oeufs.ID, Quantity: 12},
	)

	if order.Status != models.OrderStatusPending {
		t.Errorf("statut = %q, attendu pending", order.Status)
	}
	if order.TotalAmount != 2*3.5+12*0.5 {
		t.Errorf("total = %v, attendu 13.0", order.TotalAmount)
	}
	if got := f.stock(t, tomates.ID); got != 8 {
		t.Errorf("stock tomates = %d, attendu 8", got)
	}
	if got := f.stock(t, oeufs.ID); got != 18 {
		t.Errorf("stock oeufs = %d, attendu 18", got)
	}
}

func TestCreateOrderBuyerOnly(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	p := f.product(t, farmer, "Tomates", 3.5, 10)

	_, err := f.orders.CreateOrder(context.Background(), farmer.ID, farmer.Role, "",
		[]marketplace.LineInput{{ProductID: p.ID, Quantity: 1}})
	var aerr *marketplace.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("attendu AuthorizationError, reçu %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Tomates", 3.5, 10)
	ctx := context.Background()

	var verr *marketplace.ValidationError

	if _, err := f.orders.CreateOrder(ctx, buyer.ID, buyer.Role, "", nil); !errors.As(err, &verr) {
		t.Errorf("commande vide: attendu ValidationError, reçu %v", err)
	}
	if _, err := f.orders.CreateOrder(ctx, buyer.ID, buyer.Role, "",
		[]marketplace.LineInput{{ProductID: p.ID, Quantity: 0}}); !errors.As(err, &verr) {
		t.Errorf("quantité 0: attendu ValidationError, reçu %v", err)
	}
	if _, err := f.orders.CreateOrder(ctx, buyer.ID, buyer.Role, "",
		[]marketplace.LineInput{{ProductID: p.ID, Quantity: -2}}); !errors.As(err, &verr) {
		t.Errorf("quantité négative: attendu ValidationError, reçu %v", err)
	}
}

// Une ligne en rupture annule toute la commande : aucun stock ne bouge.
func TestCreateOrderAllOrNothing(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	tomates := f.product(t, farmer, "Tomates", 3.5, 10)
	fraises := f.product(t, farmer, "Fraises", 6.0, 2)

	_, err := f.orders.CreateOrder(context.Background(), buyer.ID, buyer.Role, "",
		[]marketplace.LineInput{
			{ProductID: tomates.ID, Quantity: 3},
			{ProductID: fraises.ID, Quantity: 5}, // seulement 2 en stock
		})
	var serr *marketplace.InsufficientStockError
	if !errors.As(err, &serr) {
		t.Fatalf("attendu InsufficientStockError, reçu %v", err)
	}
	if serr.Requested != 5 || serr.Available != 2 {
		t.Errorf("erreur = demandé %d / dispo %d, attendu 5/2", serr.Requested, serr.Available)
	}

	if got := f.stock(t, tomates.ID); got != 10 {
		t.Errorf("stock tomates = %d, attendu 10 (rien ne doit bouger)", got)
	}
	if got := f.stock(t, fraises.ID); got != 2 {
		t.Errorf("stock fraises = %d, attendu 2", got)
	}
}

// Deux acheteurs en course sur la dernière unité : exactement un gagne.
func TestCreateOrderOversellRace(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	alice := f.user(t, "alice", models.RoleBuyer)
	bob := f.user(t, "bob", models.RoleBuyer)
	p := f.product(t, farmer, "Dernier panier", 15.0, 1)

	ctx := context.Background()
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, buyer := range []models.User{alice, bob} {
		wg.Add(1)
		go func(b models.User) {
			defer wg.Done()
			_, err := f.orders.CreateOrder(ctx, b.ID, b.Role, "",
				[]marketplace.LineInput{{ProductID: p.ID, Quantity: 1}})
			results <- err
		}(buyer)
	}
	wg.Wait()
	close(results)

	var wins, stockouts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var serr *marketplace.InsufficientStockError
			if !errors.As(err, &serr) {
				t.Fatalf("erreur inattendue: %v", err)
			}
			stockouts++
		}
	}
	if wins != 1 || stockouts != 1 {
		t.Errorf("gagnants = %d, ruptures = %d, attendu 1/1", wins, stockouts)
	}
	if got := f.stock(t, p.ID); got != 0 {
		t.Errorf("stock = %d, attendu 0", got)
	}
}

func TestOrderTotalImmutableAfterPriceChange(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Miel", 8.0, 5)
	ctx := context.Background()

	order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 2})

	newPrice := 12.0
	if _, err := f.catalog.UpdateProduct(ctx, p.ID, farmer.ID, models.ProductUpdate{Price: &newPrice}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	got, err := f.orders.GetOrder(ctx, order.ID, buyer.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.TotalAmount != 16.0 {
		t.Errorf("total = %v, attendu 16.0 (figé à la commande)", got.TotalAmount)
	}
	if got.Items[0].PriceAtTime != 8.0 {
		t.Errorf("prix ligne = %v, attendu 8.0", got.Items[0].PriceAtTime)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []string // transitions à appliquer avant la tentative
		attempt string
		ok      bool
	}{
		{"pending vers confirmed", nil, models.OrderStatusConfirmed, true},
		{"pending vers shipped interdit", nil, models.OrderStatusShipped, false},
		{"pending vers delivered interdit", nil, models.OrderStatusDelivered, false},
		{"pending vers cancelled", nil, models.OrderStatusCancelled, true},
		{"confirmed vers shipped", []string{models.OrderStatusConfirmed}, models.OrderStatusShipped, true},
		{"confirmed vers delivered interdit", []string{models.OrderStatusConfirmed}, models.OrderStatusDelivered, false},
		{"shipped vers delivered", []string{models.OrderStatusConfirmed, models.OrderStatusShipped}, models.OrderStatusDelivered, true},
		{"shipped vers cancelled", []string{models.OrderStatusConfirmed, models.OrderStatusShipped}, models.OrderStatusCancelled, true},
		{"delivered est terminal", []string{models.OrderStatusConfirmed, models.OrderStatusShipped, models.OrderStatusDelivered}, models.OrderStatusCancelled, false},
		{"retour en arrière interdit", []string{models.OrderStatusConfirmed}, models.OrderStatusPending, false},
		{"statut inconnu", nil, "expedie", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			farmer := f.user(t, "marcel", models.RoleFarmer)
			buyer := f.user(t, "paul", models.RoleBuyer)
			p := f.product(t, farmer, "Tomates", 3.5, 10)
			order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
			ctx := context.Background()

			for _, status := range tt.path {
				if _, err := f.orders.UpdateStatus(ctx, order.ID, farmer.ID, status); err != nil {
					t.Fatalf("préparation UpdateStatus(%s): %v", status, err)
				}
			}

			_, err := f.orders.UpdateStatus(ctx, order.ID, farmer.ID, tt.attempt)
			if tt.ok && err != nil {
				t.Errorf("transition vers %s: %v", tt.attempt, err)
			}
			if !tt.ok {
				var verr *marketplace.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("attendu ValidationError, reçu %v", err)
				}
			}
		})
	}
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	tomates := f.product(t, farmer, "Tomates", 3.5, 10)
	oeufs := f.product(t, farmer, "Oeufs", 0.5, 30)
	ctx := context.Background()

	order := f.order(t, buyer,
		marketplace.LineInput{ProductID: tomates.ID, Quantity: 4},
		marketplace.LineInput{ProductID: oeufs.ID, Quantity: 6},
	)

	if _, err := f.orders.UpdateStatus(ctx, order.ID, farmer.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("UpdateStatus(cancelled): %v", err)
	}

	if got := f.stock(t, tomates.ID); got != 10 {
		t.Errorf("stock tomates = %d, attendu 10 après annulation", got)
	}
	if got := f.stock(t, oeufs.ID); got != 30 {
		t.Errorf("stock oeufs = %d, attendu 30 après annulation", got)
	}
}

func TestUpdateStatusSellerOnly(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	other := f.user(t, "josette", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Tomates", 3.5, 10)
	order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})

	var aerr *marketplace.AuthorizationError
	// l'acheteur ne pilote pas le statut
	if _, err := f.orders.UpdateStatus(context.Background(), order.ID, buyer.ID, models.OrderStatusConfirmed); !errors.As(err, &aerr) {
		t.Errorf("acheteur: attendu AuthorizationError, reçu %v", err)
	}
	// un fermier étranger à la commande non plus
	if _, err := f.orders.UpdateStatus(context.Background(), order.ID, other.ID, models.OrderStatusConfirmed); !errors.As(err, &aerr) {
		t.Errorf("fermier tiers: attendu AuthorizationError, reçu %v", err)
	}
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture()
	farmer := f.user(t, "marcel", models.RoleFarmer)
	stranger := f.user(t, "intrus", models.RoleBuyer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	p := f.product(t, farmer, "Tomates", 3.5, 10)
	order := f.order(t, buyer, marketplace.LineInput{ProductID: p.ID, Quantity: 1})
	ctx := context.Background()

	if _, err := f.orders.GetOrder(ctx, order.ID, buyer.ID); err != nil {
		t.Errorf("acheteur: %v", err)
	}
	if _, err := f.orders.GetOrder(ctx, order.ID, farmer.ID); err != nil {
		t.Errorf("vendeur présent dans la commande: %v", err)
	}
	var aerr *marketplace.AuthorizationError
	if _, err := f.orders.GetOrder(ctx, order.ID, stranger.ID); !errors.As(err, &aerr) {
		t.Errorf("tiers: attendu AuthorizationError, reçu %v", err)
	}
}

func TestListOrdersByRole(t *testing.T) {
	f := newFixture()
	marcel := f.user(t, "marcel", models.RoleFarmer)
	josette := f.user(t, "josette", models.RoleFarmer)
	buyer := f.user(t, "paul", models.RoleBuyer)
	tomates := f.product(t, marcel, "Tomates", 3.5, 20)
	miel := f.product(t, josette, "Miel", 8.0, 20)
	ctx := context.Background()

	f.order(t, buyer, marketplace.LineInput{ProductID: tomates.ID, Quantity: 1})
	f.order(t, buyer, marketplace.LineInput{ProductID: miel.ID, Quantity: 1})
	mixed := f.order(t, buyer,
		marketplace.LineInput{ProductID: tomates.ID, Quantity: 1},
		marketplace.LineInput{ProductID: miel.ID, Quantity: 1},
	)

	buyerOrders, err := f.orders.ListOrders(ctx, buyer.ID, models.RoleBuyer, "")
	if err != nil {
		t.Fatalf("ListOrders(buyer): %v", err)
	}
	if len(buyerOrders) != 3 {
		t.Errorf("commandes acheteur = %d, attendu 3", len(buyerOrders))
	}

	marcelOrders, err := f.orders.ListOrders(ctx, marcel.ID, models.RoleFarmer, "")
	if err != nil {
		t.Fatalf("ListOrders(marcel): %v", err)
	}
	if len(marcelOrders) != 2 {
		t.Errorf("commandes marcel = %d, attendu 2", len(marcelOrders))
	}

	// filtre de statut
	if _, err := f.orders.UpdateStatus(ctx, mixed.ID, marcel.ID, models.OrderStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	confirmed, err := f.orders.ListOrders(ctx, buyer.ID, models.RoleBuyer, models.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("ListOrders(status): %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != mixed.ID {
		t.Errorf("filtre confirmed: %d commandes, attendu la seule commande mixte", len(confirmed))
	}

	var verr *marketplace.ValidationError
	if _, err := f.orders.ListOrders(ctx, buyer.ID, models.RoleBuyer, "inconnu"); !errors.As(err, &verr) {
		t.Errorf("statut inconnu: attendu ValidationError, reçu %v", err)
	}
}
