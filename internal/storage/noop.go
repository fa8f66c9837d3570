package storage

// NoopSlot is used when persistence is disabled.
type NoopSlot struct{}

func NewNoopSlot() *NoopSlot { return &NoopSlot{} }

func (n *NoopSlot) Load() ([]byte, error) { return nil, nil }
func (n *NoopSlot) Save(_ []byte) error   { return nil }
