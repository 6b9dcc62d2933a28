package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/tests"
)

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	visRepo := NewVisitorRepository(db)
	repo := NewKVRepository(db)

	vis1 := testutil.CreateVisitor(t, visRepo)
	vis2 := testutil.CreateVisitor(t, visRepo)
	ns1 := repo.Namespace(ctx, vis1.ID)
	ns2 := repo.Namespace(ctx, vis2.ID)

	_, ok, err := ns1.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ns1.Set("token", "abc"))
	require.NoError(t, ns1.Set("token", "def")) // upsert
	require.NoError(t, ns2.Set("token", "xyz"))

	v, ok, err := ns1.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def", v)

	v, ok, err = ns2.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)

	require.NoError(t, ns1.Remove("token"))
	require.NoError(t, ns1.Remove("token")) // idempotent
	_, ok, err = ns1.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ns2.Get("token")
	require.NoError(t, err)
	assert.True(t, ok, "other namespaces are left untouched")
}

func TestKVRepository_unknownVisitor(t *testing.T) {
	db := testutil.PrepareDB(t)
	ns := NewKVRepository(db).Namespace(context.Background(), "lol")

	assert.Error(t, ns.Set("token", "abc"), "items belong to an existing visitor")
}
