package dihttp

import (
	"bytes"
	"context"
	"encoding/gob"
	"reflect"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
)

// Store holds the scoped instances of one request or one session.
//
// Instances are stored by [di.Key]. A factory that returns nil is remembered as [Null],
// so it is not called again. Instances created by [Store.GetOrCreate] that have a supported
// Close method are closed, newest first, when the Store is closed.
//
// A Store is safe for concurrent use. Session stores are shared by concurrent requests of
// the same session.
type Store struct {
	entries   *xsync.MapOf[di.Key, *storeEntry]
	closersMu sync.Mutex
	closers   []di.Closer
	closed    bool

	// decoded holds instances read by UnmarshalBinary until a key with the same name claims them.
	decodedMu sync.Mutex
	decoded   map[string]any
}

type storeEntry struct {
	mu   sync.Mutex
	done bool
	val  any
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	return &Store{
		entries: xsync.NewMapOf[di.Key, *storeEntry](),
	}
}

// nullValue is a named bool so that gob can encode it.
type nullValue bool

// Null is stored in place of an instance that was created as nil.
var Null any = nullValue(true)

func init() {
	gob.Register(Null)
	gob.Register(&Store{})
}

// ErrStoreClosed is returned when a closed [Store] is asked to create an instance.
var ErrStoreClosed = errors.New("scope store closed")

// GetOrCreate returns the instance stored for key, calling create if there is none.
//
// create runs at most once per key at a time, and its result is stored only if it succeeds.
// Callers asking for the same key wait for the running call.
func (s *Store) GetOrCreate(key di.Key, create func() (any, error)) (any, error) {
	e := s.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return fromStored(e.val), nil
	}

	if s.isClosed() {
		return nil, errors.Wrapf(ErrStoreClosed, "create %s", key)
	}

	val, err := create()
	if err != nil {
		// Errors are not remembered so the next lookup tries again
		return nil, err
	}

	e.val = toStored(val)
	e.done = true

	if !isNil(val) {
		s.addCloser(di.AsCloser(val))
	}

	return val, nil
}

// Get returns the instance stored for key.
// A stored [Null] is returned as nil with ok set to true.
func (s *Store) Get(key di.Key) (val any, ok bool) {
	e, found := s.entries.Load(key)
	if !found {
		if !s.hasDecoded(key.Name()) {
			return nil, false
		}
		e = s.entry(key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.done {
		return nil, false
	}
	return fromStored(e.val), true
}

// Put stores val for key, replacing any stored instance.
//
// A nil val is stored as [Null]. The Store does not close values added with Put.
func (s *Store) Put(key di.Key, val any) {
	e := s.entry(key)

	e.mu.Lock()
	e.val = toStored(val)
	e.done = true
	e.mu.Unlock()
}

// entry returns the entry for key, creating it from a decoded instance with the same name
// if there is one.
func (s *Store) entry(key di.Key) *storeEntry {
	e, _ := s.entries.LoadOrCompute(key, func() *storeEntry {
		if val, ok := s.claimDecoded(key.Name()); ok {
			return &storeEntry{done: true, val: val}
		}
		return &storeEntry{}
	})
	return e
}

func (s *Store) hasDecoded(name string) bool {
	s.decodedMu.Lock()
	defer s.decodedMu.Unlock()

	_, ok := s.decoded[name]
	return ok
}

func (s *Store) claimDecoded(name string) (any, bool) {
	s.decodedMu.Lock()
	defer s.decodedMu.Unlock()

	val, ok := s.decoded[name]
	if ok {
		delete(s.decoded, name)
	}
	return val, ok
}

// Contains reports whether an instance, or [Null], is stored for key.
func (s *Store) Contains(key di.Key) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns the number of stored instances.
func (s *Store) Len() int {
	s.decodedMu.Lock()
	n := len(s.decoded)
	s.decodedMu.Unlock()

	s.entries.Range(func(_ di.Key, e *storeEntry) bool {
		e.mu.Lock()
		if e.done {
			n++
		}
		e.mu.Unlock()
		return true
	})
	return n
}

func (s *Store) addCloser(c di.Closer) {
	if c == nil {
		return
	}

	s.closersMu.Lock()
	s.closers = append(s.closers, c)
	s.closersMu.Unlock()
}

func (s *Store) isClosed() bool {
	s.closersMu.Lock()
	defer s.closersMu.Unlock()
	return s.closed
}

// Close closes the instances created by the Store, newest first.
//
// Stored instances can still be read after Close, but no new ones are created.
// Calling Close more than once does nothing.
func (s *Store) Close(ctx context.Context) error {
	s.closersMu.Lock()
	if s.closed {
		s.closersMu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.closersMu.Unlock()

	var errs errors.MultiError
	for i := len(closers) - 1; i >= 0; i-- {
		errs = errs.Append(closers[i].Close(ctx))
	}

	return errs.Join()
}

// MarshalBinary encodes the stored instances with [encoding/gob].
//
// Instances are encoded by [di.Key.Name]. Types of stored instances must be registered
// with [gob.Register].
func (s *Store) MarshalBinary() ([]byte, error) {
	vals := make(map[string]any)

	s.decodedMu.Lock()
	for name, val := range s.decoded {
		vals[name] = val
	}
	s.decodedMu.Unlock()

	s.entries.Range(func(key di.Key, e *storeEntry) bool {
		e.mu.Lock()
		if e.done {
			vals[key.Name()] = e.val
		}
		e.mu.Unlock()
		return true
	})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vals); err != nil {
		return nil, errors.Wrap(err, "dihttp.Store.MarshalBinary")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the contents of the Store with instances decoded from data.
//
// A decoded instance is bound to the first key with a matching [di.Key.Name] that looks it up.
// Decoded instances with a supported Close method are closed when the Store is closed.
func (s *Store) UnmarshalBinary(data []byte) error {
	var vals map[string]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&vals); err != nil {
		return errors.Wrap(err, "dihttp.Store.UnmarshalBinary")
	}

	if s.entries == nil {
		s.entries = xsync.NewMapOf[di.Key, *storeEntry]()
	} else {
		s.entries.Clear()
	}

	s.closersMu.Lock()
	s.closers = nil
	s.closed = false
	s.closersMu.Unlock()

	s.decodedMu.Lock()
	s.decoded = vals
	s.decodedMu.Unlock()

	for _, val := range vals {
		if _, isNull := val.(nullValue); !isNull {
			s.addCloser(di.AsCloser(val))
		}
	}
	return nil
}

// GobEncode lets a Store be stored as a session attribute.
func (s *Store) GobEncode() ([]byte, error) {
	return s.MarshalBinary()
}

// GobDecode lets a Store be stored as a session attribute.
func (s *Store) GobDecode(data []byte) error {
	return s.UnmarshalBinary(data)
}

func toStored(val any) any {
	if isNil(val) {
		return Null
	}
	return val
}

func fromStored(val any) any {
	if _, ok := val.(nullValue); ok {
		return nil
	}
	return val
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
