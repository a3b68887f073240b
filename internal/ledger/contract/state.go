package contract

import (
	"sort"
	"strings"
)

// State is the key/value world state a transaction reads and writes.
// GetState returns nil for an absent key.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
	Keys(prefix string) ([]string, error) // sorted ascending
}

// MapState is an in-memory State. It is not safe for concurrent use.
type MapState map[string][]byte

func (m MapState) GetState(key string) ([]byte, error) { return m[key], nil }

func (m MapState) PutState(key string, value []byte) error {
	m[key] = append([]byte(nil), value...)
	return nil
}

func (m MapState) DelState(key string) error {
	delete(m, key)
	return nil
}

func (m MapState) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Overlay buffers writes over a base state. Reads see the buffered writes.
// Nothing reaches the base until Commit, so a failed or read-only transaction
// leaves it untouched.
type Overlay struct {
	base   State
	writes map[string][]byte // nil value marks a delete
}

func NewOverlay(base State) *Overlay {
	return &Overlay{base: base, writes: make(map[string][]byte)}
}

func (o *Overlay) GetState(key string) ([]byte, error) {
	if v, ok := o.writes[key]; ok {
		return v, nil
	}
	return o.base.GetState(key)
}

func (o *Overlay) PutState(key string, value []byte) error {
	o.writes[key] = append([]byte{}, value...)
	return nil
}

func (o *Overlay) DelState(key string) error {
	o.writes[key] = nil
	return nil
}

func (o *Overlay) Keys(prefix string) ([]string, error) {
	base, err := o.base.Keys(prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(base))
	var keys []string
	for _, k := range base {
		seen[k] = true
		if v, ok := o.writes[k]; ok && v == nil {
			continue
		}
		keys = append(keys, k)
	}
	for k, v := range o.writes {
		if v != nil && !seen[k] && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Commit applies the buffered writes to the base state in key order.
func (o *Overlay) Commit() error {
	keys := make([]string, 0, len(o.writes))
	for k := range o.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var err error
		if v := o.writes[k]; v == nil {
			err = o.base.DelState(k)
		} else {
			err = o.base.PutState(k, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
