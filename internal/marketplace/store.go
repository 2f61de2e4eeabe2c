package marketplace

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// StockLine - une demande de réservation ou de restitution de stock
type StockLine struct {
	ProductID gocql.UUID
	Quantity  int
}

// MessageFilter - restrictions optionnelles sur ListMessages
type MessageFilter struct {
	WithUser   *gocql.UUID // limite à une conversation
	UnreadOnly bool        // uniquement les messages reçus non lus
}

// Store est le point unique d'exclusion mutuelle : c'est lui qui porte
// l'isolation sérialisable autour des mutations de stock, l'unicité des avis
// et le CAS sur les transitions de statut. Deux implémentations :
// store/scylla (LWT ScyllaDB) et store/memstore (mutex, pour les tests et le
// mode dev).
type Store interface {
	// --- Utilisateurs ---
	InsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id gocql.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// --- Produits ---
	InsertProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id gocql.UUID) error
	ListProducts(ctx context.Context) ([]models.Product, error)

	// ReserveStock décrémente atomiquement chaque ligne, tout ou rien :
	// en cas d'échec, aucune mutation nette ne subsiste et l'erreur est une
	// *InsufficientStockError.
	ReserveStock(ctx context.Context, lines []StockLine) error
	// ReleaseStock restitue le stock (annulation, compensation).
	ReleaseStock(ctx context.Context, lines []StockLine) error

	// --- Commandes ---
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID gocql.UUID) ([]models.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID gocql.UUID) ([]models.Order, error)
	// CASOrderStatus ne bascule le statut que si le statut courant vaut
	// encore `from` (pas de lost update). Retourne false si la condition a
	// échoué.
	CASOrderStatus(ctx context.Context, orderID gocql.UUID, from, to string) (bool, error)
	// HasDeliveredOrder - au moins une commande "delivered" de cet acheteur
	// contenant ce produit (porte d'achat des avis).
	HasDeliveredOrder(ctx context.Context, buyerID, productID gocql.UUID) (bool, error)

	// --- Avis ---
	// InsertReview est atomique vis-à-vis de l'unicité (user, product) :
	// retourne false sans insérer si un avis existe déjà.
	InsertReview(ctx context.Context, r *models.Review) (bool, error)
	GetReview(ctx context.Context, id gocql.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, productID gocql.UUID) ([]models.Review, error)

	// --- Messages ---
	InsertMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id gocql.UUID) (*models.Message, error)
	MarkMessageRead(ctx context.Context, id gocql.UUID) error
	ListMessages(ctx context.Context, userID gocql.UUID, f MessageFilter) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID gocql.UUID) (int, error)
	ConversationPartners(ctx context.Context, userID gocql.UUID) ([]models.Conversation, error)
}
