package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/auth"
	bazaarhttp "github.com/shashiranjanraj/bazaar/pkg/http"
)

// RunFile loads path and runs its scenarios in order as subtests. The run
// stops at the first failing scenario since later ones depend on it.
func RunFile(t *testing.T, handler http.Handler, path string) {
	t.Helper()
	list, err := LoadFile(path)
	require.NoError(t, err)
	Run(t, handler, list...)
}

// Run executes scenarios in order.
func Run(t *testing.T, handler http.Handler, scenarios ...*Scenario) {
	t.Helper()
	for _, s := range scenarios {
		if !t.Run(s.Name, func(t *testing.T) { runScenario(t, handler, s) }) {
			return
		}
	}
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	mt := NewMockTransport(s)
	bazaarhttp.SetTransport(mt)
	defer bazaarhttp.ResetTransport()

	var body io.Reader
	if len(s.Body) > 0 {
		body = bytes.NewReader(s.Body)
	}
	req := httptest.NewRequest(s.Method, s.URL, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != nil {
		token, err := auth.GenerateToken(s.As.ID, s.As.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	AssertJSONSubset(t, s, rec.Body.Bytes())
	for _, url := range mt.Uncalled() {
		t.Errorf("[%s] upstream mock %q was never called", s.Name, url)
	}
}
