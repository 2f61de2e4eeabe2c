// Package memstore fournit un Store en mémoire, protégé par un seul mutex.
// Utilisé par les tests et par STORE_BACKEND=memory en dev : les mêmes
// garanties d'atomicité que le store ScyllaDB (réservation tout-ou-rien,
// unicité des avis, CAS sur les statuts), sans base externe.
package memstore

import (
	"context"
	"sync"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

type reviewKey struct {
	UserID    gocql.UUID
	ProductID gocql.UUID
}

type Store struct {
	mu sync.Mutex

	users    map[gocql.UUID]models.User
	byEmail  map[string]gocql.UUID
	products map[gocql.UUID]models.Product
	orders   map[gocql.UUID]models.Order
	reviews  map[gocql.UUID]models.Review
	byAuthor map[reviewKey]gocql.UUID
	messages map[gocql.UUID]models.Message
}

var _ marketplace.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[gocql.UUID]models.User),
		byEmail:  make(map[string]gocql.UUID),
		products: make(map[gocql.UUID]models.Product),
		orders:   make(map[gocql.UUID]models.Order),
		reviews:  make(map[gocql.UUID]models.Review),
		byAuthor: make(map[reviewKey]gocql.UUID),
		messages: make(map[gocql.UUID]models.Message),
	}
}

// --- Utilisateurs ---

func (s *Store) InsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return &marketplace.ConflictError{Reason: "un compte existe déjà avec cet email"}
	}
	s.users[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id gocql.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "utilisateur", ID: id.String()}
	}
	out := u
	return &out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "utilisateur", ID: email}
	}
	u := s.users[id]
	return &u, nil
}

// --- Produits ---

func (s *Store) InsertProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "produit", ID: id.String()}
	}
	out := p
	return &out, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return &marketplace.NotFoundError{Entity: "produit", ID: p.ID.String()}
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return &marketplace.NotFoundError{Entity: "produit", ID: id.String()}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

// ReserveStock vérifie puis décrémente toutes les lignes sous le même verrou :
// tout ou rien, le stock ne passe jamais sous zéro.
func (s *Store) ReserveStock(_ context.Context, lines []marketplace.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			return &marketplace.NotFoundError{Entity: "produit", ID: line.ProductID.String()}
		}
		if p.Quantity < line.Quantity {
			return &marketplace.InsufficientStockError{
				ProductID: line.ProductID.String(),
				Requested: line.Quantity,
				Available: p.Quantity,
			}
		}
	}
	for _, line := range lines {
		p := s.products[line.ProductID]
		p.Quantity -= line.Quantity
		s.products[line.ProductID] = p
	}
	return nil
}

// ReleaseStock restitue le stock. Un produit supprimé entre-temps est ignoré :
// la commande garde ses snapshots, il n'y a plus rien à restituer.
func (s *Store) ReleaseStock(_ context.Context, lines []marketplace.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			continue
		}
		p.Quantity += line.Quantity
		s.products[line.ProductID] = p
	}
	return nil
}

// --- Commandes ---

func (s *Store) InsertOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	s.orders[o.ID] = cp
	return nil
}

func (s *Store) GetOrder(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "commande", ID: id.String()}
	}
	cp := o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (s *Store) ListOrdersByBuyer(_ context.Context, buyerID gocql.UUID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			cp := o
			cp.Items = append([]models.OrderItem(nil), o.Items...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *Store) ListOrdersBySeller(_ context.Context, sellerID gocql.UUID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		for _, item := range o.Items {
			if item.SellerID == sellerID {
				cp := o
				cp.Items = append([]models.OrderItem(nil), o.Items...)
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) CASOrderStatus(_ context.Context, orderID gocql.UUID, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, &marketplace.NotFoundError{Entity: "commande", ID: orderID.String()}
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	s.orders[orderID] = o
	return true, nil
}

func (s *Store) HasDeliveredOrder(_ context.Context, buyerID, productID gocql.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.BuyerID != buyerID || o.Status != models.OrderStatusDelivered {
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

// --- Avis ---

func (s *Store) InsertReview(_ context.Context, r *models.Review) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{UserID: r.UserID, ProductID: r.ProductID}
	if _, exists := s.byAuthor[key]; exists {
		return false, nil
	}
	s.reviews[r.ID] = *r
	s.byAuthor[key] = r.ID
	return true, nil
}

func (s *Store) GetReview(_ context.Context, id gocql.UUID) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "avis", ID: id.String()}
	}
	out := r
	return &out, nil
}

func (s *Store) UpdateReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[r.ID]; !ok {
		return &marketplace.NotFoundError{Entity: "avis", ID: r.ID.String()}
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) DeleteReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[r.ID]; !ok {
		return &marketplace.NotFoundError{Entity: "avis", ID: r.ID.String()}
	}
	delete(s.reviews, r.ID)
	delete(s.byAuthor, reviewKey{UserID: r.UserID, ProductID: r.ProductID})
	return nil
}

func (s *Store) ListReviews(_ context.Context, productID gocql.UUID) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Messages ---

func (s *Store) InsertMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = *m
	return nil
}

func (s *Store) GetMessage(_ context.Context, id gocql.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, &marketplace.NotFoundError{Entity: "message", ID: id.String()}
	}
	out := m
	return &out, nil
}

func (s *Store) MarkMessageRead(_ context.Context, id gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return &marketplace.NotFoundError{Entity: "message", ID: id.String()}
	}
	m.IsRead = true
	s.messages[id] = m
	return nil
}

func (s *Store) ListMessages(_ context.Context, userID gocql.UUID, f marketplace.MessageFilter) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		if f.WithUser != nil {
			partner := m.SenderID
			if m.SenderID == userID {
				partner = m.ReceiverID
			}
			if partner != *f.WithUser {
				continue
			}
		}
		if f.UnreadOnly && (m.ReceiverID != userID || m.IsRead) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) UnreadCount(_ context.Context, userID gocql.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) ConversationPartners(_ context.Context, userID gocql.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := make(map[gocql.UUID]models.Conversation)
	for _, m := range s.messages {
		var partner gocql.UUID
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		if conv, ok := last[partner]; !ok || m.CreatedAt.After(conv.LastMessageAt) {
			last[partner] = models.Conversation{PartnerID: partner, LastMessageAt: m.CreatedAt}
		}
	}
	out := make([]models.Conversation, 0, len(last))
	for _, conv := range last {
		out = append(out, conv)
	}
	return out, nil
}
