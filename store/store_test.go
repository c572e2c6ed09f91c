package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-accounts/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateGadgets = `CREATE TABLE gadgets (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    kind TEXT,
    count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Gadget is a throwaway model exercising the generic store.
type Gadget struct {
	bun.BaseModel `bun:"table:gadgets,alias:gdt"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid"`
	Name      string     `bun:"name,notnull,unique"`
	Kind      string     `bun:"kind"`
	Count     int        `bun:"count"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func gadgetHandlers() store.ModelHandlers[*Gadget] {
	return store.ModelHandlers[*Gadget]{
		NewRecord: func() *Gadget { return &Gadget{} },
		GetID: func(g *Gadget) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *Gadget, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
	}
}

func setupGadgetStore(t *testing.T) (*store.Store[*Gadget], func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateGadgets)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return store.New(bunDB, gadgetHandlers()), cleanup
}

func TestStoreCreateAndGetByID(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.Create(ctx, &Gadget{Name: "flux-capacitor", Count: 3})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "flux-capacitor", created.Name)
	assert.Equal(t, 3, created.Count)
	require.NotNil(t, created.CreatedAt, "create should return the persisted row")

	found, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "flux-capacitor", found.Name)
}

func TestStoreGetByIDNotFound(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	_, err := s.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestStoreCreateUniqueViolation(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.Create(ctx, &Gadget{Name: "sprocket"})
	require.NoError(t, err)

	_, err = s.Create(ctx, &Gadget{Name: "sprocket"})
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(err))
	assert.False(t, store.IsRecordNotFound(err))
}

func TestStoreFind(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.Create(ctx, &Gadget{Name: "widget", Kind: "mechanical"})
	require.NoError(t, err)

	found, err := s.Find(ctx, store.SelectBy("name", "widget"))
	require.NoError(t, err)
	assert.Equal(t, "mechanical", found.Kind)

	_, err = s.Find(ctx, store.SelectBy("name", "nope"))
	require.Error(t, err)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestStoreList(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "no match should be an empty slice, not an error")

	_, err = s.Create(ctx, &Gadget{Name: "a", Kind: "mechanical"})
	require.NoError(t, err)
	_, err = s.Create(ctx, &Gadget{Name: "b", Kind: "mechanical"})
	require.NoError(t, err)
	_, err = s.Create(ctx, &Gadget{Name: "c", Kind: "electrical"})
	require.NoError(t, err)

	records, err = s.List(ctx, store.SelectBy("kind", "mechanical"))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStoreUpdate(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.Create(ctx, &Gadget{Name: "gizmo", Kind: "mechanical", Count: 1})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, &Gadget{Count: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Count)
	assert.Equal(t, "gizmo", updated.Name, "partial update should keep untouched fields")
	assert.Equal(t, "mechanical", updated.Kind)
}

func TestStoreUpdateNotFound(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	_, err := s.Update(context.Background(), uuid.New(), &Gadget{Count: 7})
	require.Error(t, err)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestStoreDelete(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.Create(ctx, &Gadget{Name: "doodad"})
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// removing a missing row is a no-op, not an error
	deleted, err = s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.GetByID(ctx, created.ID)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestStoreCreateMany(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.CreateMany(ctx, []*Gadget{
		{Name: "one"},
		{Name: "two"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, g := range created {
		assert.NotEqual(t, uuid.Nil, g.ID)
	}
}

func TestStoreUpdateMany(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.Create(ctx, &Gadget{Name: "a", Kind: "mechanical"})
	require.NoError(t, err)
	_, err = s.Create(ctx, &Gadget{Name: "b", Kind: "mechanical"})
	require.NoError(t, err)

	changed, err := s.UpdateMany(ctx, &Gadget{Count: 9}, store.UpdateBy("kind", "mechanical"))
	require.NoError(t, err)
	assert.True(t, changed)

	records, err := s.List(ctx, store.SelectBy("kind", "mechanical"))
	require.NoError(t, err)
	for _, g := range records {
		assert.Equal(t, 9, g.Count)
	}

	changed, err = s.UpdateMany(ctx, &Gadget{Count: 9}, store.UpdateBy("kind", "imaginary"))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestStoreTransactionRollback(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.CreateTx(ctx, tx, &Gadget{Name: "ephemeral"}); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom, "the original error is re-raised untouched")

	_, err = s.Find(ctx, store.SelectBy("name", "ephemeral"))
	assert.True(t, store.IsRecordNotFound(err), "rolled back writes must not be visible")
}

func TestStoreTransactionCommit(t *testing.T) {
	s, cleanup := setupGadgetStore(t)
	defer cleanup()

	ctx := context.Background()

	err := s.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.CreateTx(ctx, tx, &Gadget{Name: "first"}); err != nil {
			return err
		}
		_, err := s.CreateTx(ctx, tx, &Gadget{Name: "second"})
		return err
	})
	require.NoError(t, err)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
