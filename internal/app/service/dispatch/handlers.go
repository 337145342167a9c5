package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/platform/broker"
	"github.com/fatflowers/listing-payment/internal/platform/sibling"
	"github.com/fatflowers/listing-payment/pkg/types"
)

type ListingConfirmer interface {
	ConfirmPayment(ctx context.Context, propertyID, paymentID string) error
}

type Notifier interface {
	Send(ctx context.Context, n *sibling.Notification) error
}

type EventPublisher interface {
	PublishStateChanged(ctx context.Context, evt *broker.StateChangedEvent) error
}

// ConfirmListing activates the listing of a paid property.
func ConfirmListing(c ListingConfirmer) Handler {
	return func(ctx context.Context, evt *payment.TransitionEvent) error {
		if evt.To != types.PaymentStatusSuccess {
			return nil
		}
		return c.ConfirmPayment(ctx, evt.Payment.PropertyID, evt.Payment.ID)
	}
}

// NotifyUser tells the paying user about the outcome.
func NotifyUser(n Notifier) Handler {
	return func(ctx context.Context, evt *payment.TransitionEvent) error {
		return n.Send(ctx, buildNotification(evt))
	}
}

// PublishStateChanged emits the transition on the event stream.
func PublishStateChanged(p EventPublisher) Handler {
	return func(ctx context.Context, evt *payment.TransitionEvent) error {
		return p.PublishStateChanged(ctx, &broker.StateChangedEvent{
			PaymentID:      evt.Payment.ID,
			PropertyID:     evt.Payment.PropertyID,
			UserID:         evt.Payment.UserID,
			Status:         string(evt.To),
			PreviousStatus: string(evt.From),
			Reason:         evt.Reason,
			OccurredAt:     evt.OccurredAt,
		})
	}
}

func buildNotification(evt *payment.TransitionEvent) *sibling.Notification {
	p := evt.Payment
	n := &sibling.Notification{
		UserID:     p.UserID,
		PaymentID:  p.ID,
		PropertyID: p.PropertyID,
		Status:     string(evt.To),
	}
	if evt.To == types.PaymentStatusSuccess {
		n.Subject = "Listing payment received"
		n.Message = fmt.Sprintf("Your payment of %s %s for property %s was received. The listing is now being published.",
			p.Amount.StringFixed(2), p.Currency, p.PropertyID)
		return n
	}
	n.Subject = "Listing payment failed"
	n.Message = fmt.Sprintf("Your payment of %s %s for property %s did not complete.", p.Amount.StringFixed(2), p.Currency, p.PropertyID)
	n.Reason = evt.Reason
	return n
}

// registerHandlers subscribes every configured side effect.
func registerHandlers(d *Dispatcher, listing *sibling.ListingClient, notifier *sibling.NotificationClient, pub *broker.Publisher, log *zap.SugaredLogger) {
	if listing.Enabled() {
		d.Subscribe(EventPaymentSucceeded, "listing_confirm", ConfirmListing(listing))
	} else {
		log.Warnw("listing confirmation disabled, no listing.base_url configured")
	}
	if notifier.Enabled() {
		d.Subscribe(EventPaymentSucceeded, "notify_user", NotifyUser(notifier))
		d.Subscribe(EventPaymentFailed, "notify_user", NotifyUser(notifier))
	}
	if pub.Enabled() {
		d.Subscribe(EventPaymentSucceeded, "publish_state", PublishStateChanged(pub))
		d.Subscribe(EventPaymentFailed, "publish_state", PublishStateChanged(pub))
	}
}

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(newLifecycleDispatcher, fx.As(fx.Self()), fx.As(new(payment.TransitionListener))),
	),
	fx.Invoke(registerHandlers),
)
