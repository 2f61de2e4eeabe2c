package scylla

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Chaque message est écrit trois fois : une ligne canonique dans messages et
// une copie dans la partition messages_by_user de l'émetteur et du
// destinataire, pour que les boîtes se lisent sans scan complet.

const messageColumns = `message_id, sender_id, receiver_id, content, is_read, created_at`

func (s *Store) InsertMessage(ctx context.Context, m *models.Message) error {
	if err := s.market.Query(
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.IsRead, m.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return err
	}

	for _, owner := range []gocql.UUID{m.SenderID, m.ReceiverID} {
		if err := s.market.Query(
			`INSERT INTO messages_by_user (user_id, message_id, sender_id, receiver_id, content, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			owner, m.ID, m.SenderID, m.ReceiverID, m.Content, m.IsRead, m.CreatedAt,
		).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Erreur indexation messages_by_user: %v", err)
		}
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id gocql.UUID) (*models.Message, error) {
	var m models.Message
	err := s.market.Query(
		`SELECT `+messageColumns+` FROM messages WHERE message_id = ?`, id,
	).WithContext(ctx).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "message", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) MarkMessageRead(ctx context.Context, id gocql.UUID) error {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}

	if err := s.market.Query(
		`UPDATE messages SET is_read = true WHERE message_id = ?`, id,
	).WithContext(ctx).Exec(); err != nil {
		return err
	}

	for _, owner := range []gocql.UUID{m.SenderID, m.ReceiverID} {
		if err := s.market.Query(
			`UPDATE messages_by_user SET is_read = true WHERE user_id = ? AND message_id = ?`,
			owner, id,
		).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Erreur mise à jour messages_by_user: %v", err)
		}
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID gocql.UUID, f marketplace.MessageFilter) ([]models.Message, error) {
	messages, err := s.scanUserMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := messages[:0]
	for _, m := range messages {
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

func (s *Store) UnreadCount(ctx context.Context, userID gocql.UUID) (int, error) {
	messages, err := s.scanUserMessages(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range messages {
		if m.ReceiverID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) ConversationPartners(ctx context.Context, userID gocql.UUID) ([]models.Conversation, error) {
	messages, err := s.scanUserMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	last := make(map[gocql.UUID]models.Conversation)
	for _, m := range messages {
		partner := m.SenderID
		if m.SenderID == userID {
			partner = m.ReceiverID
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

func (s *Store) scanUserMessages(ctx context.Context, userID gocql.UUID) ([]models.Message, error) {
	iter := s.market.Query(
		`SELECT message_id, sender_id, receiver_id, content, is_read, created_at FROM messages_by_user WHERE user_id = ?`,
		userID,
	).WithContext(ctx).Iter()

	var messages []models.Message
	var m models.Message
	for iter.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt) {
		messages = append(messages, m)
		m = models.Message{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return messages, nil
}
