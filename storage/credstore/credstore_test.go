package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

type store interface {
	session.Store
	LoadLanguage(ctx context.Context) (string, bool, error)
	SaveLanguage(ctx context.Context, code string) error
	Close() error
}

var rec = session.Record{
	Token: "t0k3n",
	User:  user.Profile{ID: 7, Username: "teacher1", Role: user.RoleTeacher, FullName: "Asha Patil"},
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"), logsvc.NewNop())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func stores(t *testing.T) map[string]store {
	return map[string]store{
		"sqlite": openSQLite(t),
		"memory": NewMemory(),
	}
}

func TestStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := st.LoadSession(ctx)
			assert.NoError(t, err)
			assert.False(t, ok, "empty store should have no session")

			assert.NoError(t, st.SaveSession(ctx, rec))
			got, ok, err := st.LoadSession(ctx)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, rec, got)

			assert.NoError(t, st.ClearSession(ctx))
			_, ok, err = st.LoadSession(ctx)
			assert.NoError(t, err)
			assert.False(t, ok)

			// clearing twice is fine
			assert.NoError(t, st.ClearSession(ctx))
		})
	}
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			bad := rec
			bad.User.Role = "JANITOR"
			assert.Error(t, st.SaveSession(ctx, bad))
			assert.Error(t, st.SaveSession(ctx, session.Record{User: rec.User}))

			_, ok, _ := st.LoadSession(ctx)
			assert.False(t, ok)
		})
	}
}

func TestStore_LanguageSurvivesLogout(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := st.LoadLanguage(ctx)
			assert.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, st.SaveSession(ctx, rec))
			assert.NoError(t, st.SaveLanguage(ctx, "mr"))
			assert.NoError(t, st.SaveLanguage(ctx, "hi"))
			assert.NoError(t, st.ClearSession(ctx))

			code, ok, err := st.LoadLanguage(ctx)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "hi", code)
		})
	}
}

func TestSQLiteStore_CorruptEntriesAreAbsent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		token string
		user  string
	}{
		{name: "not json", token: "abc", user: "{not json"},
		{name: "unknown role", token: "abc", user: `{"id":1,"username":"x","role":"JANITOR"}`},
		{name: "token only", token: "abc"},
		{name: "user only", user: `{"id":1,"username":"x","role":"ADMIN"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openSQLite(t)
			if tt.token != "" {
				assert.NoError(t, put(ctx, st.db, KeyToken, tt.token))
			}
			if tt.user != "" {
				assert.NoError(t, put(ctx, st.db, KeyUser, tt.user))
			}

			_, ok, err := st.LoadSession(ctx)
			assert.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	st, err := Open(ctx, path, logsvc.NewNop())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	assert.NoError(t, st.SaveSession(ctx, rec))
	assert.NoError(t, st.Close())

	st, err = Open(ctx, path, logsvc.NewNop())
	if err != nil {
		t.Fatalf("reopen = %v", err)
	}
	defer st.Close()

	got, ok, err := st.LoadSession(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", logsvc.NewNop())
	assert.Error(t, err)
}

func TestMemoryStore_RawValues(t *testing.T) {
	st := NewMemory()
	st.Set(KeyToken, "abc")
	st.Set(KeyUser, "garbage")

	_, ok, err := st.LoadSession(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	v, ok := st.Get(KeyUser)
	assert.True(t, ok)
	assert.Equal(t, "garbage", v)
}
