package persistence

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/nodefinder/codec"
)

var (
	// ErrUnknownTag is returned when no type is registered for a tag.
	ErrUnknownTag = errors.New("persistence: unknown tag")
	// ErrDuplicateTag is returned when a tag is registered twice.
	ErrDuplicateTag = errors.New("persistence: duplicate tag")
	// ErrUnknownCodec is returned when a snapshot names an unknown codec.
	ErrUnknownCodec = errors.New("persistence: unknown codec")
)

// Record is a value that can be stored in a snapshot.
type Record interface {
	RecordTag() string
}

// envelope is the encoded form of a record.
type envelope struct {
	Tag  string `json:"tag"`
	Data any    `json:"data"`
}

type entry struct {
	newWire func() any
	encode  func(Record) (any, error)
	decode  func(any) (Record, error)
}

// Registry maps record tags to their wire representations.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a record type to r. encode converts a record of type R to
// its wire form W; decode converts back.
func Register[R Record, W any](r *Registry, tag string, encode func(R) (W, error), decode func(*W) (R, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
	}
	r.entries[tag] = entry{
		newWire: func() any { return new(W) },
		encode: func(rec Record) (any, error) {
			v, ok := rec.(R)
			if !ok {
				return nil, fmt.Errorf("persistence: tag %s: unexpected record type %T", tag, rec)
			}
			return encode(v)
		},
		decode: func(w any) (Record, error) {
			return decode(w.(*W))
		},
	}
	return nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for tag := range r.entries {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) lookup(tag string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[tag]
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return e, nil
}

// Encode encodes rec into a tagged envelope with c.
func (r *Registry) Encode(c codec.Codec, rec Record) ([]byte, error) {
	tag := rec.RecordTag()
	e, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	wire, err := e.encode(rec)
	if err != nil {
		return nil, err
	}
	b, err := c.Marshal(envelope{Tag: tag, Data: wire})
	if err != nil {
		return nil, fmt.Errorf("persistence: encode %s: %w", tag, err)
	}
	return b, nil
}

// rawData keeps the undecoded bytes of the envelope's data field.
type rawData []byte

func (d *rawData) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

// Decode decodes a tagged envelope with c.
func (r *Registry) Decode(c codec.Codec, data []byte) (Record, error) {
	var head struct {
		Tag  string  `json:"tag"`
		Data rawData `json:"data"`
	}
	if err := c.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	e, err := r.lookup(head.Tag)
	if err != nil {
		return nil, err
	}
	if len(head.Data) == 0 {
		return nil, fmt.Errorf("%w: %s without data", ErrCorrupt, head.Tag)
	}

	wire := e.newWire()
	if err := c.Unmarshal(head.Data, wire); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", head.Tag, err)
	}
	return e.decode(wire)
}
