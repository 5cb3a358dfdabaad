package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPProbe(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/no-head":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := newHTTPProbe(context.Background(), 2*time.Second)
	assert.True(t, p.Reachable(srv.URL+"/ok"))
	assert.True(t, p.Reachable(srv.URL+"/no-head"))
	assert.False(t, p.Reachable(srv.URL+"/gone"))
	assert.False(t, p.Reachable("http://[::1"))

	before := hits.Load()
	assert.True(t, p.Reachable(srv.URL+"/ok"))
	assert.Equal(t, before, hits.Load(), "answers are memoised")
}
