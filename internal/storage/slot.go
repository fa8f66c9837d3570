// Package storage provides the single durable slot the history cache is
// persisted to.
package storage

// Slot holds one opaque value. Load returns (nil, nil) when the slot has
// never been written.
type Slot interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Funcs adapts a read/write function pair to Slot.
type Funcs struct {
	LoadFunc func() ([]byte, error)
	SaveFunc func([]byte) error
}

func (f Funcs) Load() ([]byte, error) {
	if f.LoadFunc == nil {
		return nil, nil
	}
	return f.LoadFunc()
}

func (f Funcs) Save(data []byte) error {
	if f.SaveFunc == nil {
		return nil
	}
	return f.SaveFunc(data)
}
