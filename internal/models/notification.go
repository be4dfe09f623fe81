package models

// NotificationAction is a button rendered on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationData travels with the notification and is all the click
// handler gets to see; it must not reference page-level state.
type NotificationData struct {
	URL       string `json:"url"`
	BookingID string `json:"bookingId,omitempty"`
}

// NotificationRequest is the value object handed to the notification
// surface. Tag is the dedup key: the surface replaces any visible
// notification sharing a tag instead of stacking a second one.
type NotificationRequest struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon,omitempty"`
	Tag                string               `json:"tag,omitempty"`
	Data               NotificationData     `json:"data"`
	Actions            []NotificationAction `json:"actions,omitempty"`
	RequireInteraction bool                 `json:"require_interaction,omitempty"`
}
