package session_test

import (
	"context"
	"encoding/gob"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sectrean/di-web/dihttp/session"
	"github.com/sectrean/di-web/internal/mocks"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/sectrean/di-web/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gob.Register(&testtypes.Cart{})
}

func newSession(t *testing.T, m *session.Manager) *session.Session {
	s, err := m.Session(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), true)
	require.NoError(t, err)
	return s
}

func Test_Session_Attributes(t *testing.T) {
	s := newSession(t, session.NewManager())

	assert.NotEmpty(t, s.ID())
	assert.False(t, s.Created().IsZero())
	assert.True(t, s.IsValid())

	_, ok := s.Attribute("cart")
	assert.False(t, ok)

	cart := testtypes.NewCart()
	s.SetAttribute("cart", cart)
	s.SetAttribute("user", "gopher")

	got, ok := s.Attribute("cart")
	assert.True(t, ok)
	assert.Same(t, cart, got)
	assert.Equal(t, []string{"cart", "user"}, s.AttributeNames())

	s.RemoveAttribute("user")
	assert.Equal(t, []string{"cart"}, s.AttributeNames())
}

func Test_Session_LoadOrStoreAttribute(t *testing.T) {
	s := newSession(t, session.NewManager())

	var calls atomic.Int32
	newCart := func() any {
		calls.Add(1)
		return testtypes.NewCart()
	}

	const concurrency = 100
	carts := make(chan any, concurrency)
	testutils.RunParallel(concurrency, func(int) {
		carts <- s.LoadOrStoreAttribute("cart", newCart)
	})
	close(carts)

	values := testutils.CollectChannel(carts)
	for _, v := range values {
		assert.Same(t, values[0], v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func Test_Session_Invalidate(t *testing.T) {
	t.Run("closes attributes", func(t *testing.T) {
		m := session.NewManager()
		s := newSession(t, m)

		cart := testtypes.NewCart()
		s.SetAttribute("cart", cart)
		s.SetAttribute("user", "gopher")
		require.Equal(t, 1, m.Len())

		err := s.Invalidate(context.Background())
		assert.NoError(t, err)

		assert.False(t, s.IsValid())
		assert.True(t, cart.Closed())
		assert.Empty(t, s.AttributeNames())
		assert.Equal(t, 0, m.Len())

		_, ok := m.Get(s.ID())
		assert.False(t, ok)

		// Invalidate again does nothing
		assert.NoError(t, s.Invalidate(context.Background()))
	})

	t.Run("close error", func(t *testing.T) {
		s := newSession(t, session.NewManager())

		a := mocks.NewInterfaceAMock(t)
		a.EXPECT().
			Close(mock.Anything).
			Return(stderrors.New("close error"))
		s.SetAttribute("a", a)

		err := s.Invalidate(context.Background())
		testutils.LogError(t, err)

		assert.EqualError(t, err, "session.Session.Invalidate "+s.ID()+": attribute a: close error")
	})
}

func Test_Session_MarshalBinary(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := newSession(t, session.NewManager())
		s.SetAttribute("cart", &testtypes.Cart{Items: []string{"apple"}})
		s.SetAttribute("user", "gopher")

		data, err := s.MarshalBinary()
		require.NoError(t, err)

		var decoded session.Session
		require.NoError(t, decoded.UnmarshalBinary(data))

		assert.Equal(t, s.ID(), decoded.ID())
		assert.True(t, s.Created().Equal(decoded.Created()))
		assert.True(t, decoded.IsValid())
		assert.Equal(t, []string{"cart", "user"}, decoded.AttributeNames())

		cart, ok := decoded.Attribute("cart")
		require.True(t, ok)
		assert.Equal(t, []string{"apple"}, cart.(*testtypes.Cart).Items)

		user, _ := decoded.Attribute("user")
		assert.Equal(t, "gopher", user)
	})

	t.Run("unregistered type", func(t *testing.T) {
		type unregistered struct{ Name string }

		s := newSession(t, session.NewManager())
		s.SetAttribute("x", unregistered{Name: "x"})

		_, err := s.MarshalBinary()
		testutils.LogError(t, err)

		assert.ErrorContains(t, err, "session.Session.MarshalBinary "+s.ID())
	})

	t.Run("invalid data", func(t *testing.T) {
		var decoded session.Session
		err := decoded.UnmarshalBinary([]byte("not gob"))
		testutils.LogError(t, err)

		assert.ErrorContains(t, err, "session.Session.UnmarshalBinary")
	})
}
