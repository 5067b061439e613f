package port

// Notifier receives human-readable outcomes. Fire-and-forget.
type Notifier interface {
	Error(message string)
	Info(message string)
}
