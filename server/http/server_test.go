package http

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/server"
)

func TestServerServesAndStops(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}

	srv := NewServer(
		server.WithName("test"),
		server.WithAddress("127.0.0.1:0"),
		WithMiddleware(mark("outer"), mark("inner")),
	)

	require.NoError(t, srv.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})))
	require.NoError(t, srv.Start())

	addr := srv.Options().Address
	assert.NotEqual(t, "127.0.0.1:0", addr)

	rsp, err := http.Get("http://" + addr + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(rsp.Body)
	rsp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, "pong", string(body))
	assert.Equal(t, []string{"outer", "inner"}, order)

	require.NoError(t, srv.Stop(context.Background()))

	_, err = http.Get("http://" + addr + "/ping")
	assert.Error(t, err)
}

func TestServerRejectsBadSetup(t *testing.T) {
	srv := NewServer(server.WithAddress("127.0.0.1:0"))

	assert.Error(t, srv.Start())
	assert.Error(t, srv.Handle("not a handler"))
	assert.NoError(t, srv.Stop(context.Background()))
}
