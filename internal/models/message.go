package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Message struct {
	ID         gocql.UUID `json:"id" db:"message_id"`
	SenderID   gocql.UUID `json:"sender_id" db:"sender_id"`
	ReceiverID gocql.UUID `json:"receiver_id" db:"receiver_id"`
	Content    string     `json:"content" db:"content"`
	IsRead     bool       `json:"is_read" db:"is_read"` // seul le destinataire peut le passer à true
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Conversation - interlocuteur distinct avec l'horodatage du dernier message
type Conversation struct {
	PartnerID     gocql.UUID `json:"partner_id"`
	LastMessageAt time.Time  `json:"last_message_at"`
}
