package substate

import (
	"errors"
	"time"

	"ticketera/store"
)

var (
	// ErrNoSubscription means the restaurant has no subscription row.
	ErrNoSubscription = errors.New("no subscription")
	// ErrTrialExpired means a TRIAL subscription is past its end date.
	ErrTrialExpired = errors.New("trial expired")
	// ErrInactive covers CANCELED and any status that is not paid up.
	ErrInactive = errors.New("subscription inactive")
)

// Evaluate decides whether sub grants access at now.
func Evaluate(sub *store.Subscription, now time.Time) error {
	if sub == nil {
		return ErrNoSubscription
	}
	switch sub.Status {
	case store.SubscriptionActive:
		return nil
	case store.SubscriptionTrial:
		if now.After(sub.TrialEndsAt) {
			return ErrTrialExpired
		}
		return nil
	default:
		return ErrInactive
	}
}

// Checkout is the result of starting a (mock) payment.
type Checkout struct {
	PaymentURL   string              `json:"paymentUrl"`
	Subscription *store.Subscription `json:"subscription"`
}
