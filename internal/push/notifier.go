package push

import (
	"errors"
	"fmt"
	"log/slog"

	"larder/internal/store"
)

// Notifier fans a notification out to every subscription a user has
// registered, pruning subscriptions the push service reports expired.
// All sends are best effort; failures are logged and never surfaced to
// the caller.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: svc, subs: subs, logger: logger}
}

// ShareInvited notifies the recipient that a list was shared with them.
func (n *Notifier) ShareInvited(recipientID int64, inviterName, listName string) {
	n.notify(recipientID, Payload{
		Title: "List shared with you",
		Body:  fmt.Sprintf("%s shared %q with you", inviterName, listName),
		URL:   "/shares",
		Tag:   "share-invited",
	})
}

// ShareAccepted notifies the owner that their invitation was accepted.
func (n *Notifier) ShareAccepted(ownerID int64, recipientName, listName string) {
	n.notify(ownerID, Payload{
		Title: "Share accepted",
		Body:  fmt.Sprintf("%s accepted your share of %q", recipientName, listName),
		URL:   "/lists",
		Tag:   "share-accepted",
	})
}

func (n *Notifier) notify(userID int64, payload Payload) {
	if n == nil || !n.service.Configured() {
		return
	}

	subs, err := n.subs.ListByUser(userID)
	if err != nil {
		n.logger.Warn("push: list subscriptions", "user_id", userID, "error", err)
		return
	}

	for _, sub := range subs {
		if err := n.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Warn("push: prune expired subscription", "error", err)
				}
			} else {
				n.logger.Warn("push: send notification", "user_id", userID, "error", err)
			}
		}
	}
}
