package aquarius

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDID = "did:op:aceb9148a06a3abdc4ac6e40f101eacf0b07f6ad6b51496f2cc47b8dd72dfa5d"

type fakeCache struct {
	hits    atomic.Int32
	fixture []byte
}

func newFakeCache(t *testing.T) (*fakeCache, *httptest.Server) {
	t.Helper()
	b, err := os.ReadFile("testdata/ddo_v4.json")
	require.NoError(t, err)

	fc := &fakeCache{fixture: b}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/aquarius/assets/ddo/{did}", func(w http.ResponseWriter, r *http.Request) {
		fc.hits.Add(1)
		switch r.PathValue("did") {
		case fixtureDID:
			w.Header().Set("content-type", "application/json")
			w.Write(fc.fixture)
		case "did:op:broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "did:op:empty":
			w.Write([]byte("null"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("POST /api/aquarius/assets/ddo/validate", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if strings.Contains(string(b), `"name"`) {
			w.Write([]byte(`{"hash":"0xabc"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"metadata":"name is required"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fc, srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(&ClientArgs{Service: srv.URL + "/", Client: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresService(t *testing.T) {
	_, err := NewClient(&ClientArgs{})
	assert.Error(t, err)
}

func TestFetchDDO(t *testing.T) {
	_, srv := newFakeCache(t)
	c := newClient(t, srv)
	ctx := context.Background()

	doc, err := c.FetchDDO(ctx, fixtureDID)
	require.NoError(t, err)
	a, ok := doc.(*ddo.Asset)
	require.True(t, ok)
	assert.Equal(t, int64(8996), a.ChainID)

	_, err = c.FetchDDO(ctx, "did:op:unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.FetchDDO(ctx, "did:op:empty")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.FetchDDO(ctx, "did:op:broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestValidateRemote(t *testing.T) {
	fc, srv := newFakeCache(t)
	c := newClient(t, srv)
	ctx := context.Background()

	doc, err := ddo.Decode(fc.fixture)
	require.NoError(t, err)

	res, err := c.ValidateRemote(ctx, doc)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "0xabc", res.Hash)

	bare := ddo.NewAsset(1, "0x1")
	res, err = c.ValidateRemote(ctx, bare)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "name is required", res.Errors["metadata"])
}
