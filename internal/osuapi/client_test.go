package osuapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"osureporter/bot/internal/osuapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *osuapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := osuapi.NewClient("test-key")
	c.BaseURL = srv.URL
	return c
}

func TestLookupCombinesUserAndTopPlays(t *testing.T) {
	calls := map[string]int{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("k"))
		switch r.URL.Path {
		case "/get_user":
			calls["get_user"]++
			w.Write([]byte(`[{"user_id":"124493","username":"tybug2","pp_rank":"43012","pp_raw":"4523.1","playcount":"20412"}]`))
		case "/get_user_best":
			calls["get_user_best"]++
			w.Write([]byte(`[{"beatmap_id":"129891","enabled_mods":"72","pp":"312.5","rank":"SH","date":"2019-07-01 12:00:00","count300":"680","count100":"22","count50":"0","countmiss":"0","countkatu":"17","countgeki":"174"}]`))
		case "/get_beatmaps":
			calls["get_beatmaps"]++
			w.Write([]byte(`[{"title":"FREEDOM DiVE"}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	p, err := c.Lookup(context.Background(), "tybug2", "0", osuapi.IdentifierName)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "124493", p.UserID)
	assert.Equal(t, "tybug2", p.Username)
	assert.Equal(t, 43012, p.PPRank)
	require.Len(t, p.TopPlays, 1)
	assert.Equal(t, "FREEDOM DiVE", p.TopPlays[0].Title)
	assert.Equal(t, 72, p.TopPlays[0].Mods)
	assert.Equal(t, 1, calls["get_user_best"])
}

// TestLookupAbsentSkipsTopPlays - an empty get_user response means the player
// is restricted or nonexistent, and no further calls are made.
func TestLookupAbsentSkipsTopPlays(t *testing.T) {
	calls := map[string]int{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++
		w.Write([]byte(`[]`))
	})

	p, err := c.Lookup(context.Background(), "ghost", "1", osuapi.IdentifierName)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 1, calls["/get_user"])
	assert.Zero(t, calls["/get_user_best"])
}

func TestLookupTransportFaultIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Lookup(context.Background(), "anyone", "0", osuapi.IdentifierName)
	assert.Error(t, err)
}

func TestLookupMalformedPayloadIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	})

	_, err := c.Lookup(context.Background(), "anyone", "0", osuapi.IdentifierName)
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, osuapi.IdentifierID, r.URL.Query().Get("type"))
		if r.URL.Query().Get("u") == "124493" {
			w.Write([]byte(`[{"user_id":"124493","username":"tybug2"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	ok, err := c.Exists(context.Background(), "124493")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), "999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestBeatmapTitleCache - repeated plays on the same map hit get_beatmaps once.
func TestBeatmapTitleCache(t *testing.T) {
	beatmapCalls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_user":
			w.Write([]byte(`[{"user_id":"1","username":"a","pp_rank":"1","pp_raw":"1","playcount":"1"}]`))
		case "/get_user_best":
			w.Write([]byte(`[{"beatmap_id":"42","enabled_mods":"0","pp":"1"},{"beatmap_id":"42","enabled_mods":"0","pp":"1"}]`))
		case "/get_beatmaps":
			beatmapCalls++
			w.Write([]byte(`[{"title":"cached"}]`))
		}
	})

	p, err := c.Lookup(context.Background(), "a", "0", osuapi.IdentifierName)
	require.NoError(t, err)
	require.Len(t, p.TopPlays, 2)
	assert.Equal(t, 1, beatmapCalls)
}
