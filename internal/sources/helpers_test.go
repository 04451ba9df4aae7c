package sources_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newStaticServer serves body for every request and returns the server URL
func newStaticServer(t *testing.T, body string) string {
	t.Helper()
	return httptestHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func httptestHandler(t *testing.T, fn http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(fn)
	srv.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(srv.Close)
	return srv.URL
}
