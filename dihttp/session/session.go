// Package session provides in-memory HTTP sessions identified by a cookie.
//
// Sessions hold named attributes. They can be encoded with [encoding/gob] to be persisted
// and restored with [Manager.Restore]. Attribute types must be registered with [gob.Register].
package session

import (
	"bytes"
	"context"
	"encoding/gob"
	"slices"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
)

// Session is a set of attributes shared by the requests of one client.
type Session struct {
	id      string
	created time.Time
	attrs   *xsync.MapOf[string, any]
	valid   atomic.Bool

	// onInvalidate removes the session from its Manager.
	onInvalidate func(id string)
}

func newSession(id string, onInvalidate func(string)) *Session {
	s := &Session{
		id:           id,
		created:      time.Now(),
		attrs:        xsync.NewMapOf[string, any](),
		onInvalidate: onInvalidate,
	}
	s.valid.Store(true)
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Created returns the time the session was created.
func (s *Session) Created() time.Time {
	return s.created
}

// IsValid reports whether the session has not been invalidated.
func (s *Session) IsValid() bool {
	return s.valid.Load()
}

// Attribute returns the attribute stored under name.
func (s *Session) Attribute(name string) (any, bool) {
	return s.attrs.Load(name)
}

// SetAttribute stores val under name.
func (s *Session) SetAttribute(name string, val any) {
	s.attrs.Store(name, val)
}

// RemoveAttribute removes the attribute stored under name.
func (s *Session) RemoveAttribute(name string) {
	s.attrs.Delete(name)
}

// LoadOrStoreAttribute returns the attribute stored under name.
// If there is none, it stores and returns the result of newVal.
//
// newVal is called at most once, even when called concurrently for the same name.
func (s *Session) LoadOrStoreAttribute(name string, newVal func() any) any {
	val, _ := s.attrs.LoadOrCompute(name, newVal)
	return val
}

// AttributeNames returns the sorted names of all attributes.
func (s *Session) AttributeNames() []string {
	names := make([]string, 0, s.attrs.Size())
	s.attrs.Range(func(name string, _ any) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Invalidate ends the session.
//
// Attributes with a supported Close method are closed and all attributes are removed.
// Calling Invalidate more than once does nothing.
func (s *Session) Invalidate(ctx context.Context) error {
	if !s.valid.CompareAndSwap(true, false) {
		return nil
	}

	if s.onInvalidate != nil {
		s.onInvalidate(s.id)
	}

	var errs errors.MultiError
	for _, name := range s.AttributeNames() {
		val, _ := s.attrs.LoadAndDelete(name)
		if closer := di.AsCloser(val); closer != nil {
			errs = errs.Append(errors.Wrapf(closer.Close(ctx), "attribute %s", name))
		}
	}

	return errs.Wrapf("session.Session.Invalidate %s", s.id)
}

type sessionData struct {
	ID         string
	Created    time.Time
	Attributes map[string]any
}

// MarshalBinary encodes the session and its attributes with [encoding/gob].
func (s *Session) MarshalBinary() ([]byte, error) {
	data := sessionData{
		ID:         s.id,
		Created:    s.created,
		Attributes: make(map[string]any, s.attrs.Size()),
	}
	s.attrs.Range(func(name string, val any) bool {
		data.Attributes[name] = val
		return true
	})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, errors.Wrapf(err, "session.Session.MarshalBinary %s", s.id)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a session encoded by [Session.MarshalBinary].
//
// The decoded session is valid. Use [Manager.Restore] to make it available to requests.
func (s *Session) UnmarshalBinary(b []byte) error {
	var data sessionData
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&data); err != nil {
		return errors.Wrap(err, "session.Session.UnmarshalBinary")
	}

	s.id = data.ID
	s.created = data.Created
	s.attrs = xsync.NewMapOf[string, any]()
	for name, val := range data.Attributes {
		s.attrs.Store(name, val)
	}
	s.valid.Store(true)
	return nil
}
