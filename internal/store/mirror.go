package store

// Mirror is what the in-memory stores need to persist a snapshot. *DB
// satisfies it; NopMirror keeps a store purely in memory.
type Mirror interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
}

// NopMirror discards writes and never finds anything.
type NopMirror struct{}

func (NopMirror) Put(string, any) error         { return nil }
func (NopMirror) Get(string, any) (bool, error) { return false, nil }
