package marketplace

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// Messaging - la messagerie acheteur/fermier. Pas de règle métier au-delà de
// l'état lu/non-lu ; les messages ne sont jamais supprimés.
type Messaging struct {
	store Store
}

func NewMessaging(store Store) *Messaging {
	return &Messaging{store: store}
}

func (m *Messaging) SendMessage(ctx context.Context, senderID, receiverID gocql.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "le message ne peut pas être vide"}
	}
	if senderID == receiverID {
		return nil, &ValidationError{Field: "receiver_id", Reason: "impossible de s'écrire à soi-même"}
	}
	if _, err := m.store.GetUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         gocql.TimeUUID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
		CreatedAt:  time.Now(),
	}
	if err := m.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages - messages où l'acteur est émetteur ou destinataire, du plus
// récent au plus ancien.
func (m *Messaging) ListMessages(ctx context.Context, userID gocql.UUID, f MessageFilter) ([]models.Message, error) {
	messages, err := m.store.ListMessages(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// MarkRead - seul le destinataire peut marquer un message comme lu.
func (m *Messaging) MarkRead(ctx context.Context, messageID, actorID gocql.UUID) (*models.Message, error) {
	msg, err := m.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != actorID {
		return nil, &AuthorizationError{Reason: "seul le destinataire peut marquer ce message comme lu"}
	}
	if !msg.IsRead {
		if err := m.store.MarkMessageRead(ctx, messageID); err != nil {
			return nil, err
		}
		msg.IsRead = true
	}
	return msg, nil
}

func (m *Messaging) UnreadCount(ctx context.Context, userID gocql.UUID) (int, error) {
	return m.store.UnreadCount(ctx, userID)
}

// ListConversationPartners - interlocuteurs distincts avec l'horodatage du
// dernier message échangé, conversation la plus récente en tête.
func (m *Messaging) ListConversationPartners(ctx context.Context, userID gocql.UUID) ([]models.Conversation, error) {
	partners, err := m.store.ConversationPartners(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(partners, func(i, j int) bool {
		return partners[i].LastMessageAt.After(partners[j].LastMessageAt)
	})
	return partners, nil
}
