package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go"

	"tickethub/models"
)

// SettlementNotifier sends the receipt email and the realtime buyer
// notification after a settlement commits. Both are best effort: delivery
// failures are logged and never affect the settlement itself.
type SettlementNotifier struct {
	app    core.App
	pubnub *pubnub.PubNub
	users  Store
}

func NewSettlementNotifier(app core.App, pn *pubnub.PubNub, users Store) *SettlementNotifier {
	return &SettlementNotifier{
		app:    app,
		pubnub: pn,
		users:  users,
	}
}

func (n *SettlementNotifier) SettlementSucceeded(ctx context.Context, t *models.Transaction) {
	go n.deliver(t)
}

func (n *SettlementNotifier) deliver(t *models.Transaction) {
	ctx := context.Background()

	buyer, err := n.users.FindUser(ctx, t.BuyerID)
	if err != nil {
		slog.Error("notifier: buyer lookup failed", "buyer", t.BuyerID, "error", err)
		return
	}

	if err := n.sendReceipt(buyer, t); err != nil {
		slog.Error("notifier: receipt email failed", "reference", t.Reference, "error", err)
	}

	channel := fmt.Sprintf("user-%s", t.BuyerID)
	_, _, err = n.pubnub.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":      "payment_success",
			"reference": t.Reference,
			"quantity":  t.Quantity,
		}).
		Execute()
	if err != nil {
		slog.Error("notifier: realtime publish failed", "channel", channel, "error", err)
	}
}

func (n *SettlementNotifier) sendReceipt(buyer *models.User, t *models.Transaction) error {
	settings := n.app.Settings()

	message := &mailer.Message{
		From: mail.Address{
			Address: settings.Meta.SenderAddress,
			Name:    settings.Meta.SenderName,
		},
		To:      []mail.Address{{Address: buyer.Email, Name: buyer.Name}},
		Subject: fmt.Sprintf("Your tickets are confirmed (%s)", t.Reference),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your payment for %d ticket(s) was confirmed. Reference: <strong>%s</strong>.</p>",
			buyer.Name, t.Quantity, t.Reference,
		),
	}

	return n.app.NewMailClient().Send(message)
}
