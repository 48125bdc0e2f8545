package catalog

import "reflect"

// Request is a typed request descriptor: params P, result R.
type Request[P, R any] struct {
	name      string
	direction Direction
}

// NewRequest declares a request the client sends to the server.
func NewRequest[P, R any](name string) Request[P, R] {
	return Request[P, R]{name: name, direction: ClientToServer}
}

// NewServerRequest declares a request the server sends to the client.
func NewServerRequest[P, R any](name string) Request[P, R] {
	return Request[P, R]{name: name, direction: ServerToClient}
}

func (r Request[P, R]) Name() string { return r.name }

func (r Request[P, R]) Direction() Direction { return r.direction }

func (r Request[P, R]) Descriptor() Descriptor {
	return Descriptor{
		Name:      r.name,
		Kind:      KindRequest,
		Direction: r.direction,
		Params:    reflect.TypeFor[P](),
		Result:    reflect.TypeFor[R](),
	}
}

// Notification is a typed notification descriptor with params P.
type Notification[P any] struct {
	name      string
	direction Direction
}

// NewNotification declares a notification the client sends to the server.
func NewNotification[P any](name string) Notification[P] {
	return Notification[P]{name: name, direction: ClientToServer}
}

// NewServerNotification declares a notification the server sends to the client.
func NewServerNotification[P any](name string) Notification[P] {
	return Notification[P]{name: name, direction: ServerToClient}
}

func (n Notification[P]) Name() string { return n.name }

func (n Notification[P]) Direction() Direction { return n.direction }

func (n Notification[P]) Descriptor() Descriptor {
	return Descriptor{
		Name:      n.name,
		Kind:      KindNotification,
		Direction: n.direction,
		Params:    reflect.TypeFor[P](),
	}
}
