package scylla

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Les lignes de commande sont stockées en JSON dans la table orders, avec deux
// tables de correspondance orders_by_buyer et orders_by_seller qui ne portent
// que les clés.

func (s *Store) InsertOrder(ctx context.Context, o *models.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	if err := s.market.Query(
		`INSERT INTO orders (order_id, buyer_id, status, total_amount, shipping_address, items, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.BuyerID, o.Status, o.TotalAmount, o.ShippingAddress, string(itemsJSON),
		o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := s.market.Query(
		`INSERT INTO orders_by_buyer (buyer_id, order_id) VALUES (?, ?)`,
		o.BuyerID, o.ID,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur indexation orders_by_buyer: %v", err)
	}

	// une ligne par vendeur distinct de la commande
	seen := make(map[gocql.UUID]bool)
	for _, item := range o.Items {
		if seen[item.SellerID] {
			continue
		}
		seen[item.SellerID] = true
		if err := s.market.Query(
			`INSERT INTO orders_by_seller (seller_id, order_id) VALUES (?, ?)`,
			item.SellerID, o.ID,
		).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Erreur indexation orders_by_seller: %v", err)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var o models.Order
	var itemsJSON string
	err := s.market.Query(
		`SELECT order_id, buyer_id, status, total_amount, shipping_address, items, created_at, updated_at FROM orders WHERE order_id = ?`,
		id,
	).WithContext(ctx).Scan(
		&o.ID, &o.BuyerID, &o.Status, &o.TotalAmount, &o.ShippingAddress, &itemsJSON,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "commande", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID gocql.UUID) ([]models.Order, error) {
	return s.fetchOrders(ctx, `SELECT order_id FROM orders_by_buyer WHERE buyer_id = ?`, buyerID)
}

func (s *Store) ListOrdersBySeller(ctx context.Context, sellerID gocql.UUID) ([]models.Order, error) {
	return s.fetchOrders(ctx, `SELECT order_id FROM orders_by_seller WHERE seller_id = ?`, sellerID)
}

func (s *Store) fetchOrders(ctx context.Context, keyQuery string, partition gocql.UUID) ([]models.Order, error) {
	iter := s.market.Query(keyQuery, partition).WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	var orders []models.Order
	for _, orderID := range ids {
		o, err := s.GetOrder(ctx, orderID)
		if err != nil {
			// ligne d'index orpheline, on la signale sans casser le listing
			log.Printf("⚠️ Commande indexée introuvable %s: %v", orderID, err)
			continue
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// CASOrderStatus ne bascule que si le statut courant vaut encore `from`.
func (s *Store) CASOrderStatus(ctx context.Context, orderID gocql.UUID, from, to string) (bool, error) {
	applied, err := s.market.Query(
		`UPDATE orders SET status = ?, updated_at = toTimestamp(now()) WHERE order_id = ? IF status = ?`,
		to, orderID, from,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) HasDeliveredOrder(ctx context.Context, buyerID, productID gocql.UUID) (bool, error) {
	orders, err := s.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status != models.OrderStatusDelivered {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}
