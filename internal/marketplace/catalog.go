package marketplace

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Catalog gère les produits et leur stock. Les mutations sont réservées au
// fermier propriétaire ; la lecture est publique.
type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// ProductInput - champs à la création d'un produit
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

// ProductFilter - filtres optionnels de listing
type ProductFilter struct {
	Category string
	Search   string // sous-chaîne insensible à la casse sur le nom
	MinPrice *float64
	MaxPrice *float64
}

func (c *Catalog) CreateProduct(ctx context.Context, sellerID gocql.UUID, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "le nom est obligatoire"}
	}
	if in.Price <= 0 {
		return nil, &ValidationError{Field: "price", Reason: "le prix doit être strictement positif"}
	}
	if in.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "la quantité ne peut pas être négative"}
	}

	now := time.Now()
	p := &models.Product{
		ID:          gocql.TimeUUID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		SellerID:    sellerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Catalog) GetProduct(ctx context.Context, productID gocql.UUID) (*models.Product, error) {
	return c.store.GetProduct(ctx, productID)
}

// UpdateProduct fusionne les champs fournis ; les champs absents restent
// inchangés. Seul le vendeur propriétaire peut modifier.
func (c *Catalog) UpdateProduct(ctx context.Context, productID, actorID gocql.UUID, upd models.ProductUpdate) (*models.Product, error) {
	p, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != actorID {
		return nil, &AuthorizationError{Reason: "seul le vendeur peut modifier ce produit"}
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, &ValidationError{Field: "name", Reason: "le nom est obligatoire"}
		}
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		if *upd.Price <= 0 {
			return nil, &ValidationError{Field: "price", Reason: "le prix doit être strictement positif"}
		}
		p.Price = *upd.Price
	}
	if upd.Quantity != nil {
		if *upd.Quantity < 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "la quantité ne peut pas être négative"}
		}
		p.Quantity = *upd.Quantity
	}
	if upd.Unit != nil {
		p.Unit = *upd.Unit
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.ImageURL != nil {
		p.ImageURL = *upd.ImageURL
	}
	p.UpdatedAt = time.Now()

	if err := c.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct supprime le produit. Les commandes existantes gardent leurs
// snapshots (nom, vendeur, prix) et ne sont donc pas affectées.
func (c *Catalog) DeleteProduct(ctx context.Context, productID, actorID gocql.UUID) error {
	p, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.SellerID != actorID {
		return &AuthorizationError{Reason: "seul le vendeur peut supprimer ce produit"}
	}
	return c.store.DeleteProduct(ctx, productID)
}

// ListProducts retourne les produits filtrés, du plus récent au plus ancien.
// Le filtrage se fait en mémoire sur un scan complet, ScyllaDB n'ayant pas de
// LIKE natif.
func (c *Catalog) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	all, err := c.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(all))
	search := strings.ToLower(f.Search)
	for _, p := range all {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// DecrementStock / RestoreStock - opérations internes invoquées par le livre
// de commandes. Exposées pour les ajustements manuels du vendeur.
func (c *Catalog) DecrementStock(ctx context.Context, productID gocql.UUID, amount int) error {
	if amount <= 0 {
		return &ValidationError{Field: "quantity", Reason: "la quantité doit être strictement positive"}
	}
	return c.store.ReserveStock(ctx, []StockLine{{ProductID: productID, Quantity: amount}})
}

func (c *Catalog) RestoreStock(ctx context.Context, productID gocql.UUID, amount int) error {
	if amount <= 0 {
		return &ValidationError{Field: "quantity", Reason: "la quantité doit être strictement positive"}
	}
	return c.store.ReleaseStock(ctx, []StockLine{{ProductID: productID, Quantity: amount}})
}
