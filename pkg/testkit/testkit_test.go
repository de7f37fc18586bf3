package testkit_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/auth"
	bazaarhttp "github.com/shashiranjanraj/bazaar/pkg/http"
	"github.com/shashiranjanraj/bazaar/pkg/testkit"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

var handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		writeJSON(w, map[string]string{"status": "ok"})
	case "/proxy":
		var in struct{ URL string }
		json.NewDecoder(r.Body).Decode(&in) //nolint:errcheck
		res, err := bazaarhttp.Get(in.URL).WithContext(r.Context()).Send()
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"status": res.StatusCode, "body": res.Text()})
	case "/whoami":
		h := r.Header.Get("Authorization")
		claims, err := auth.ValidateToken(h[len("Bearer "):])
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"user_id": claims.UserID, "role": claims.Role})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
})

func TestRunFile(t *testing.T) {
	testkit.RunFile(t, handler, "testdata/echo.json")
}

func TestLoadFileDefaults(t *testing.T) {
	list, err := testkit.LoadFile("testdata/echo.json")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "GET", list[0].Method)
	assert.Equal(t, http.StatusOK, list[0].ExpectedCode)
	assert.Equal(t, "POST", list[1].Method)
}

func TestDiff(t *testing.T) {
	var exp, act any
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"id":"*","items":[{"q":2}]},"code":"x"}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"id":9,"items":[{"q":3,"extra":1}]},"message":"m"}`), &act))

	diffs := testkit.Diff("", exp, act)
	assert.ElementsMatch(t, []string{
		"$.data.items[0].q: expected 2, got 3",
		"$.code: missing",
	}, diffs)
}

func TestUnmatchedUpstreamIs404(t *testing.T) {
	mt := testkit.NewMockTransport(&testkit.Scenario{})
	req, _ := http.NewRequest(http.MethodGet, "https://nowhere.test/", nil)
	res, err := mt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
