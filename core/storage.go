package core

// KeyValueStore is a durable string store scoped to one client
// (a browser origin, a CLI data directory or a BFF visitor).
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
