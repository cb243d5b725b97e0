package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackends_RoundTrip(t *testing.T) {
	ctx := context.Background()

	backends := map[string]func(t *testing.T) Backend{
		"sqlite": func(t *testing.T) Backend {
			s, err := Open(ctx, Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "reflect.db")})
			require.NoError(t, err)
			return s
		},
		"diskv": func(t *testing.T) Backend {
			s, err := Open(ctx, Options{Backend: "diskv", Path: filepath.Join(t.TempDir(), "kv")})
			require.NoError(t, err)
			return s
		},
		"memory": func(t *testing.T) Backend {
			return NewMemory()
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			_, err := s.Load(ctx, "reflect_state_v3")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "reflect_state_v3", []byte(`{"v":1}`)))
			require.NoError(t, s.Save(ctx, "reflect_state_v3", []byte(`{"v":2}`)))

			got, err := s.Load(ctx, "reflect_state_v3")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(got))

			_, err = s.Load(ctx, "other")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reflect.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "k", []byte("hello")))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestMemory_FailWrites(t *testing.T) {
	m := NewMemory()
	m.FailWrites = true

	err := m.Save(context.Background(), "k", []byte("x"))

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "redis"})

	assert.Error(t, err)
}
