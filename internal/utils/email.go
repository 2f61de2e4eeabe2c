package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// SendOrderStatusEmail prévient l'acheteur d'un changement de statut.
// Appelé en fire-and-forget : un échec d'envoi ne bloque jamais la commande.
func SendOrderStatusEmail(to string, order models.Order) error {
	msg := mail.NewMsg()

	if err := msg.From(fromAddress()); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Votre commande %s est %s", order.ID, statusLabel(order.Status)))
	msg.SetBodyString(mail.TypeTextHTML, orderStatusHTML(order))

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

func fromAddress() string {
	if from := os.Getenv("SMTP_FROM"); from != "" {
		return from
	}
	return "noreply@farmtomarket.local"
}

func statusLabel(status string) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "confirmée"
	case models.OrderStatusShipped:
		return "expédiée"
	case models.OrderStatusDelivered:
		return "livrée"
	case models.OrderStatusCancelled:
		return "annulée"
	default:
		return "en attente"
	}
}

func orderStatusHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f€</td>
				<td>%.2f€</td>
			</tr>`, item.ProductName, item.Quantity, item.PriceAtTime, item.LineTotal())
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre commande est %s</h2>
		<p>Bonjour,</p>
		<p>Le statut de votre commande <strong>%s</strong> a changé.</p>
		<table style="width: 100%%; border-collapse: collapse;">
			<tr><th>Produit</th><th>Quantité</th><th>Prix</th><th>Sous-total</th></tr>
			%s
		</table>
		<p style="text-align: right;"><strong>Total : %.2f€</strong></p>
		<p>Merci de soutenir les producteurs locaux 🌱</p>
	</div>
</body>
</html>`, statusLabel(order.Status), order.ID, itemsHTML, order.TotalAmount)
}
