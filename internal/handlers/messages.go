package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/cache"
	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// messageView - message avec émetteur et destinataire dépliés
type messageView struct {
	models.Message
	Sender   userRef `json:"sender"`
	Receiver userRef `json:"receiver"`
}

func (a *API) messageView(c *gin.Context, m models.Message) messageView {
	return messageView{
		Message:  m,
		Sender:   a.userRef(c.Request.Context(), m.SenderID),
		Receiver: a.userRef(c.Request.Context(), m.ReceiverID),
	}
}

// SendMessage - l'un ou l'autre côté peut écrire.
func (a *API) SendMessage(c *gin.Context) {
	sender, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	receiver, err := gocql.ParseUUID(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant destinataire invalide"})
		return
	}

	msg, err := a.Messaging.SendMessage(c.Request.Context(), sender, receiver, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateUnread(c.Request.Context(), receiver)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message envoyé avec succès",
		"data":    a.messageView(c, *msg),
	})
}

// ListMessages - boîte de l'acteur, ?with= et ?unread_only= optionnels.
func (a *API) ListMessages(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	filter := marketplace.MessageFilter{
		UnreadOnly: c.Query("unread_only") == "true",
	}
	if with := c.Query("with"); with != "" {
		partner, err := gocql.ParseUUID(with)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'with' invalide"})
			return
		}
		filter.WithUser = &partner
	}

	messages, err := a.Messaging.ListMessages(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, a.messageView(c, m))
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": views,
		"total":    len(views),
	})
}

// MarkMessageRead - destinataire uniquement.
func (a *API) MarkMessageRead(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	msg, err := a.Messaging.MarkRead(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	cache.InvalidateUnread(c.Request.Context(), actor)

	c.JSON(http.StatusOK, gin.H{
		"message": "Message marqué comme lu",
		"data":    gin.H{"id": msg.ID, "is_read": msg.IsRead},
	})
}

// UnreadCount - compteur de non-lus, servi depuis Redis quand possible.
func (a *API) UnreadCount(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if count := cache.GetUnreadCount(ctx, actor); count >= 0 {
		c.JSON(http.StatusOK, gin.H{"unread_count": count})
		return
	}

	count, err := a.Messaging.UnreadCount(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	cache.SetUnreadCount(ctx, actor, count)

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// ListConversations - interlocuteurs distincts, conversation récente en tête.
func (a *API) ListConversations(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	partners, err := a.Messaging.ListConversationPartners(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	type conversationView struct {
		User          userRef `json:"user"`
		LastMessageAt string  `json:"last_message_time"`
	}
	views := make([]conversationView, 0, len(partners))
	for _, p := range partners {
		views = append(views, conversationView{
			User:          a.userRef(c.Request.Context(), p.PartnerID),
			LastMessageAt: p.LastMessageAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": views})
}
