package testtypes

import "sync/atomic"

// Factory numbers the instances it creates, starting at 0.
// It is safe to use from scoped services resolved by concurrent requests.
type Factory struct {
	count atomic.Int64
}

func (f *Factory) NewStructA() *StructA {
	n := f.count.Add(1) - 1
	return &StructA{Tag: int(n)}
}

func (f *Factory) NewInterfaceA() InterfaceA {
	return f.NewStructA()
}

// Created returns the number of instances created so far.
func (f *Factory) Created() int {
	return int(f.count.Load())
}

// ExpectStructA returns the instances a new Factory creates after count calls.
func ExpectStructA(count int) []*StructA {
	s := make([]*StructA, 0, count)
	for i := range count {
		s = append(s, &StructA{Tag: i})
	}
	return s
}

func ExpectInterfaceA(count int) []InterfaceA {
	s := make([]InterfaceA, 0, count)
	for _, a := range ExpectStructA(count) {
		s = append(s, a)
	}
	return s
}
