package domain

// NotificationType mirrors the alert variants rendered by the client.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationDanger  NotificationType = "danger"
)

// Notification is the payload pushed over the realtime channel.
type Notification struct {
	Type NotificationType `json:"type"`
	Msg  string           `json:"msg"`
}
