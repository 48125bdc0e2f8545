// Package catalog describes the methods a protocol defines: their names,
// direction and payload types. The channel never consults it; it is data the
// embedding application uses to build typed calls, validate traffic and decode
// payloads for display.
package catalog

import (
	"reflect"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// Kind tells requests, which expect one response, from notifications.
type Kind int

const (
	KindRequest Kind = iota
	KindNotification
)

func (k Kind) String() string {
	if k == KindNotification {
		return "notification"
	}
	return "request"
}

// Direction is the side that sends the method.
type Direction int

const (
	ClientToServer Direction = iota
	ServerToClient
)

func (d Direction) String() string {
	if d == ServerToClient {
		return "server→client"
	}
	return "client→server"
}

// Descriptor identifies one wire operation. Result is nil for notifications.
type Descriptor struct {
	Name      string
	Kind      Kind
	Direction Direction
	Params    reflect.Type
	Result    reflect.Type
}

// Entry is anything that can describe itself, typically a typed Request or
// Notification value.
type Entry interface {
	Descriptor() Descriptor
}

var ErrUnknownMethod = errors.Base("unknown method")

// Catalog is a registry of descriptors keyed by method name.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
}

func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor)}
	if err := c.Register(entries...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New for catalogs declared at package level.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds entries. A name can only be registered once.
func (c *Catalog) Register(entries ...Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		d := e.Descriptor()
		if d.Name == "" {
			return errors.New("descriptor without a method name")
		}
		if _, exists := c.byName[d.Name]; exists {
			return errors.Errorf("method %q registered twice", d.Name)
		}
		c.byName[d.Name] = d
	}
	return nil
}

func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[name]
	return d, ok
}

// All returns every descriptor sorted by name.
func (c *Catalog) All() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Descriptor, 0, len(c.byName))
	for _, d := range c.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DecodeParams decodes raw into a new value of the method's params type and
// returns a pointer to it.
func (c *Catalog) DecodeParams(name string, raw json.RawMessage) (any, error) {
	d, ok := c.Lookup(name)
	if !ok {
		return nil, errors.WithDetails(ErrUnknownMethod, "method", name)
	}
	return decodeInto(d.Params, raw)
}

// DecodeResult decodes a response result for a request method.
func (c *Catalog) DecodeResult(name string, raw json.RawMessage) (any, error) {
	d, ok := c.Lookup(name)
	if !ok {
		return nil, errors.WithDetails(ErrUnknownMethod, "method", name)
	}
	if d.Kind != KindRequest {
		return nil, errors.Errorf("%s is a notification and has no result", name)
	}
	return decodeInto(d.Result, raw)
}

func decodeInto(typ reflect.Type, raw json.RawMessage) (any, error) {
	v := reflect.New(typ)
	if len(raw) == 0 {
		return v.Interface(), nil
	}
	if err := json.Unmarshal(raw, v.Interface()); err != nil {
		return nil, errors.WrapWith(err, message.ErrDecode)
	}
	return v.Interface(), nil
}
