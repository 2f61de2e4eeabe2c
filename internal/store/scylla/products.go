package scylla

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

const productColumns = `product_id, name, description, price, quantity, unit, category, image_url, seller_id, created_at, updated_at`

func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	return s.market.Query(
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Unit, p.Category, p.ImageURL,
		p.SellerID, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *Store) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := s.market.Query(
		`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id,
	).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Unit, &p.Category,
		&p.ImageURL, &p.SellerID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "produit", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct réécrit la ligne complète, quantité comprise : les ajustements
// manuels du vendeur passent ici, les ventes passent par ReserveStock.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.market.Query(
		`UPDATE products SET name = ?, description = ?, price = ?, quantity = ?, unit = ?, category = ?, image_url = ?, updated_at = ? WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.Quantity, p.Unit, p.Category, p.ImageURL,
		p.UpdatedAt, p.ID,
	).WithContext(ctx).Exec()
}

func (s *Store) DeleteProduct(ctx context.Context, id gocql.UUID) error {
	return s.market.Query(
		`DELETE FROM products WHERE product_id = ?`, id,
	).WithContext(ctx).Exec()
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	iter := s.market.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()

	var products []models.Product
	var p models.Product
	for iter.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Unit, &p.Category,
		&p.ImageURL, &p.SellerID, &p.CreatedAt, &p.UpdatedAt,
	) {
		products = append(products, p)
		p = models.Product{} // reset pour la prochaine itération
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return products, nil
}

// ReserveStock décrémente chaque ligne par compare-and-swap LWT rejoué en cas
// de course. Si une ligne échoue, les lignes déjà réservées sont restituées :
// aucun échec ne laisse de mutation nette.
func (s *Store) ReserveStock(ctx context.Context, lines []marketplace.StockLine) error {
	reserved := make([]marketplace.StockLine, 0, len(lines))

	for _, line := range lines {
		if err := s.casDecrement(ctx, line); err != nil {
			if rbErr := s.ReleaseStock(ctx, reserved); rbErr != nil {
				log.Printf("⚠️ Compensation de stock échouée: %v", rbErr)
			}
			return err
		}
		reserved = append(reserved, line)
	}
	return nil
}

func (s *Store) casDecrement(ctx context.Context, line marketplace.StockLine) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		err := s.market.Query(
			`SELECT quantity FROM products WHERE product_id = ?`, line.ProductID,
		).WithContext(ctx).Scan(&current)
		if err == gocql.ErrNotFound {
			return &marketplace.NotFoundError{Entity: "produit", ID: line.ProductID.String()}
		}
		if err != nil {
			return err
		}

		if current < line.Quantity {
			return &marketplace.InsufficientStockError{
				ProductID: line.ProductID.String(),
				Requested: line.Quantity,
				Available: current,
			}
		}

		applied, err := s.market.Query(
			`UPDATE products SET quantity = ? WHERE product_id = ? IF quantity = ?`,
			current-line.Quantity, line.ProductID, current,
		).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// course perdue : relire et retenter
	}
	return &marketplace.ConflictError{Reason: "stock trop disputé sur le produit " + line.ProductID.String()}
}

// ReleaseStock restitue le stock par CAS. Un produit supprimé entre-temps est
// ignoré : la commande garde ses snapshots.
func (s *Store) ReleaseStock(ctx context.Context, lines []marketplace.StockLine) error {
	for _, line := range lines {
		if err := s.casIncrement(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) casIncrement(ctx context.Context, line marketplace.StockLine) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		err := s.market.Query(
			`SELECT quantity FROM products WHERE product_id = ?`, line.ProductID,
		).WithContext(ctx).Scan(&current)
		if err == gocql.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		applied, err := s.market.Query(
			`UPDATE products SET quantity = ? WHERE product_id = ? IF quantity = ?`,
			current+line.Quantity, line.ProductID, current,
		).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return &marketplace.ConflictError{Reason: "stock trop disputé sur le produit " + line.ProductID.String()}
}
