package marketplace_test

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
	"github.com/EPHRANCINA/farm-to-market-django/internal/store/memstore"
)

// fixture regroupe les services branchés sur un store mémoire vierge.
type fixture struct {
	store     *memstore.Store
	catalog   *marketplace.Catalog
	orders    *marketplace.Orders
	reviews   *marketplace.Reviews
	messaging *marketplace.Messaging
}

func newFixture() *fixture {
	store := memstore.New()
	return &fixture{
		store:     store,
		catalog:   marketplace.NewCatalog(store),
		orders:    marketplace.NewOrders(store),
		reviews:   marketplace.NewReviews(store),
		messaging: marketplace.NewMessaging(store),
	}
}

func (f *fixture) user(t *testing.T, name, role string) models.User {
	t.Helper()
	u := models.User{
		ID:        gocql.TimeUUID(),
		Email:     name + "@ferme.test",
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := f.store.InsertUser(context.Background(), &u); err != nil {
		t.Fatalf("InsertUser(%s): %v", name, err)
	}
	return u
}

func (f *fixture) product(t *testing.T, seller models.User, name string, price float64, quantity int) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), seller.ID, marketplace.ProductInput{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Unit:     "kg",
		Category: "legumes",
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func (f *fixture) order(t *testing.T, buyer models.User, lines ...marketplace.LineInput) *models.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), buyer.ID, buyer.Role, "12 rue du Marché", lines)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

// deliver fait avancer la commande jusqu'à "delivered" via le vendeur.
func (f *fixture) deliver(t *testing.T, orderID gocql.UUID, seller models.User) {
	t.Helper()
	ctx := context.Background()
	for _, status := range []string{
		models.OrderStatusConfirmed,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		if _, err := f.orders.UpdateStatus(ctx, orderID, seller.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}
}

func (f *fixture) stock(t *testing.T, productID gocql.UUID) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return p.Quantity
}
