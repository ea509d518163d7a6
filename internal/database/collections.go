package database

// Mongo collection names shared by the service and cmd/migrate.
const (
	UsersCollection            = "user_metadata"
	EventEntriesCollection     = "event_entries"
	UserEventEntriesCollection = "user_event_entries"
	TwoFactorCollection        = "two_factor_sessions"
)
