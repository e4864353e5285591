package testtypes

import (
	"context"
	"sync/atomic"
)

// Cart is a session scoped service. Its fields are exported so it can be encoded with gob.
type Cart struct {
	Items  []string
	closed bool
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Close() {
	c.closed = true
}

func (c *Cart) Closed() bool {
	return c.closed
}

// Tracked records whether it was closed.
type Tracked struct {
	Name   string
	closed atomic.Bool
	order  *[]string
}

func NewTracked(name string, order *[]string) *Tracked {
	return &Tracked{Name: name, order: order}
}

func (t *Tracked) Close(context.Context) error {
	t.closed.Store(true)
	if t.order != nil {
		*t.order = append(*t.order, t.Name)
	}
	return nil
}

func (t *Tracked) Closed() bool {
	return t.closed.Load()
}
