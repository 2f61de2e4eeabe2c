package marketplace

import (
	"context"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Orders - le livre de commandes. Machine à états par commande :
//
//	pending → confirmed → shipped → delivered (terminal, ouvre les avis)
//	pending/confirmed/shipped → cancelled (terminal, restitue le stock)
type Orders struct {
	store Store
}

func NewOrders(store Store) *Orders {
	return &Orders{store: store}
}

// transitions légales, depuis → vers
var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

func isValidStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineInput - une ligne demandée par l'acheteur
type LineInput struct {
	ProductID gocql.UUID `json:"product_id"`
	Quantity  int        `json:"quantity"`
}

// CreateOrder crée la commande et ses lignes en une passe : snapshot des prix,
// réservation atomique du stock (tout ou rien), total figé. Deux acheteurs en
// course sur la dernière unité : un seul gagne, l'autre reçoit une
// InsufficientStockError.
func (o *Orders) CreateOrder(ctx context.Context, buyerID gocql.UUID, role, shippingAddress string, lines []LineInput) (*models.Order, error) {
	if role != models.RoleBuyer {
		return nil, &AuthorizationError{Reason: "seuls les acheteurs peuvent passer commande"}
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "au moins une ligne est requise"}
	}

	items := make([]models.OrderItem, 0, len(lines))
	reserve := make([]StockLine, 0, len(lines))
	var total float64

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "la quantité doit être strictement positive"}
		}
		p, err := o.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			SellerID:    p.SellerID,
			Quantity:    line.Quantity,
			PriceAtTime: p.Price, // jamais recalculé ensuite
		})
		reserve = append(reserve, StockLine{ProductID: p.ID, Quantity: line.Quantity})
		total += p.Price * float64(line.Quantity)
	}

	if err := o.store.ReserveStock(ctx, reserve); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:              gocql.TimeUUID(),
		BuyerID:         buyerID,
		Status:          models.OrderStatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := o.store.InsertOrder(ctx, order); err != nil {
		// compensation : le stock réservé doit être restitué
		_ = o.store.ReleaseStock(ctx, reserve)
		return nil, err
	}
	return order, nil
}

// GetOrder - visible par l'acheteur ou par tout vendeur présent dans la
// commande.
func (o *Orders) GetOrder(ctx context.Context, orderID, actorID gocql.UUID) (*models.Order, error) {
	order, err := o.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID && !sellsInOrder(order, actorID) {
		return nil, &AuthorizationError{Reason: "vous n'avez pas accès à cette commande"}
	}
	return order, nil
}

// ListOrders - les acheteurs voient leurs commandes, les fermiers celles qui
// contiennent au moins un de leurs produits.
func (o *Orders) ListOrders(ctx context.Context, actorID gocql.UUID, role, statusFilter string) ([]models.Order, error) {
	if statusFilter != "" && !isValidStatus(statusFilter) {
		return nil, &ValidationError{Field: "status", Reason: "statut inconnu: " + statusFilter}
	}

	var orders []models.Order
	var err error
	if role == models.RoleFarmer {
		orders, err = o.store.ListOrdersBySeller(ctx, actorID)
	} else {
		orders, err = o.store.ListOrdersByBuyer(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}

	if statusFilter != "" {
		filtered := orders[:0]
		for _, ord := range orders {
			if ord.Status == statusFilter {
				filtered = append(filtered, ord)
			}
		}
		orders = filtered
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// UpdateStatus applique une transition de la machine à états. Seul un vendeur
// possédant au moins une ligne peut piloter le statut. Le passage en
// "cancelled" restitue le stock de chaque ligne. Le basculement est un CAS sur
// le statut courant, rejoué quelques fois en cas de course.
func (o *Orders) UpdateStatus(ctx context.Context, orderID, actorID gocql.UUID, newStatus string) (*models.Order, error) {
	if !isValidStatus(newStatus) {
		return nil, &ValidationError{Field: "status", Reason: "statut inconnu: " + newStatus}
	}

	order, err := o.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !sellsInOrder(order, actorID) {
		return nil, &AuthorizationError{Reason: "seul un vendeur de la commande peut changer son statut"}
	}

	for attempt := 0; attempt < 3; attempt++ {
		if !canTransition(order.Status, newStatus) {
			return nil, &ValidationError{
				Field:  "status",
				Reason: "transition interdite: " + order.Status + " → " + newStatus,
			}
		}

		ok, err := o.store.CASOrderStatus(ctx, orderID, order.Status, newStatus)
		if err != nil {
			return nil, err
		}
		if ok {
			if newStatus == models.OrderStatusCancelled {
				release := make([]StockLine, 0, len(order.Items))
				for _, item := range order.Items {
					release = append(release, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
				}
				if err := o.store.ReleaseStock(ctx, release); err != nil {
					return nil, err
				}
			}
			order.Status = newStatus
			order.UpdatedAt = time.Now()
			return order, nil
		}

		// course perdue : relire le statut courant et revérifier la légalité
		order, err = o.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}

	return nil, &ConflictError{Reason: "la commande a changé de statut pendant la mise à jour"}
}

func sellsInOrder(order *models.Order, actorID gocql.UUID) bool {
	for _, item := range order.Items {
		if item.SellerID == actorID {
			return true
		}
	}
	return false
}
