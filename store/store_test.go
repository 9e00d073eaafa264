package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *DraftStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ocean.db"))
	require.NoError(t, err)
	return New(db)
}

func loadAsset(t *testing.T) *ddo.Asset {
	t.Helper()
	b, err := os.ReadFile("../ddo/testdata/ddo_v4.json")
	require.NoError(t, err)

	doc, err := ddo.Decode(b)
	require.NoError(t, err)
	return doc.(*ddo.Asset)
}

func TestDraftStore_SaveGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := loadAsset(t)

	require.NoError(t, s.Save(ctx, a))

	doc, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.AsDictionary(), doc.(*ddo.Asset).AsDictionary())

	require.NoError(t, a.AddAddressToDenyList("0xNEW"))
	require.NoError(t, s.Save(ctx, a))

	doc, err = s.Get(ctx, a.ID)
	require.NoError(t, err)
	denied, err := doc.(*ddo.Asset).DeniedAddresses()
	require.NoError(t, err)
	assert.Contains(t, denied, "0xnew")

	_, err = s.Get(ctx, "did:op:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftStore_RejectsUnresolved(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.Save(context.Background(), &ddo.Unresolved{DID: "did:op:1"}))
	assert.Error(t, s.Save(context.Background(), ddo.NewAsset(1, "0x1")))
}

func TestDraftStore_ListDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := loadAsset(t)
	require.NoError(t, s.Save(ctx, a))

	b := ddo.NewAsset(137, "0x2")
	b.ID = "did:op:other"
	require.NoError(t, s.Save(ctx, b))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	polygon, err := s.List(ctx, 137)
	require.NoError(t, err)
	require.Len(t, polygon, 1)
	assert.Equal(t, "did:op:other", polygon[0].Did)
	assert.Equal(t, "0x2", polygon[0].NftAddress)

	require.NoError(t, s.Delete(ctx, b.ID))
	assert.ErrorIs(t, s.Delete(ctx, b.ID), ErrNotFound)

	all, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDraftStore_ResolveDDO(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := loadAsset(t)
	require.NoError(t, s.Save(ctx, a))

	doc, err := s.ResolveDDO(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, doc.GetDID())

	doc, err = s.ResolveDDO(ctx, "did:op:missing")
	require.NoError(t, err)
	assert.True(t, ddo.IsUnresolved(doc))
}

func TestDraftStore_Tokens(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, "live", "admin", time.Now().Add(time.Hour)))
	require.NoError(t, s.SaveToken(ctx, "stale", "admin", time.Now().Add(-time.Hour)))

	ok, err := s.HasToken(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasToken(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasToken(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RevokeToken(ctx, "live"))
	ok, err = s.HasToken(ctx, "live")
	require.NoError(t, err)
	assert.False(t, ok)
}
