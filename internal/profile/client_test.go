package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStationServer(t *testing.T, hits *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad(t *testing.T) {
	var hits atomic.Int64
	srv := newStationServer(t, &hits, `{
		"station": {"user_nick": "Streamer", "profile_image": "//img.example.com/a.png"},
		"broad": {"broad_no": 12345}
	}`)

	c := NewClient(srv.URL)
	p, err := c.Load(context.Background(), "streamer")
	require.NoError(t, err)

	assert.Equal(t, "streamer", p.Handle)
	assert.Equal(t, "Streamer", p.Nickname)
	assert.Equal(t, "https://img.example.com/a.png", p.Avatar)
	assert.True(t, p.IsLive)
}

func TestLoadDefaults(t *testing.T) {
	var hits atomic.Int64
	srv := newStationServer(t, &hits, `{}`)

	c := NewClient(srv.URL)
	p, err := c.Load(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, "nobody", p.Nickname, "nickname falls back to the handle")
	assert.Equal(t, defaultAvatar, p.Avatar)
	assert.False(t, p.IsLive)
}

func TestLoadCaches(t *testing.T) {
	var hits atomic.Int64
	srv := newStationServer(t, &hits, `{"user_nick": "Streamer"}`)

	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Load(ctx, "streamer")
	require.NoError(t, err)
	_, err = c.Load(ctx, "streamer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second load must be served from cache")

	// Stale entries are refetched.
	c.now = func() time.Time { return time.Now().Add(cacheFresh + time.Second) }
	_, err = c.Load(ctx, "streamer")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestValidate(t *testing.T) {
	var hits atomic.Int64
	srv := newStationServer(t, &hits, `{"user_nick": "Streamer"}`)

	ok, p := NewClient(srv.URL).Validate(context.Background(), "streamer")
	assert.True(t, ok)
	require.NotNil(t, p)
	assert.Equal(t, "Streamer", p.Nickname)

	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(missing.Close)

	ok, p = NewClient(missing.URL).Validate(context.Background(), "ghost")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestNormalizeImageURL(t *testing.T) {
	assert.Equal(t, defaultAvatar, normalizeImageURL(""))
	assert.Equal(t, "https://cdn.example.com/x.png", normalizeImageURL("//cdn.example.com/x.png"))
	assert.Equal(t, "http://cdn.example.com/x.png", normalizeImageURL("http://cdn.example.com/x.png"))
	assert.Equal(t, "https://profile.img.afreecatv.com/a/b.png", normalizeImageURL("/a/b.png"))
}
