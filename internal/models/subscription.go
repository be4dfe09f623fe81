package models

import webpush "github.com/SherClockHolmes/webpush-go"

// SubscriptionKeys holds the client key material of a push subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription mirrors the browser's PushSubscriptionJSON. It is unique per
// device, created once by the subscription manager and never mutated after.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

func (s *Subscription) ToWebPush() *webpush.Subscription {
	return &webpush.Subscription{
		Endpoint: s.Endpoint,
		Keys: webpush.Keys{
			P256dh: s.Keys.P256dh,
			Auth:   s.Keys.Auth,
		},
	}
}

func SubscriptionFromWebPush(ws *webpush.Subscription) Subscription {
	return Subscription{
		Endpoint: ws.Endpoint,
		Keys: SubscriptionKeys{
			P256dh: ws.Keys.P256dh,
			Auth:   ws.Keys.Auth,
		},
	}
}
