package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport is an http.RoundTripper that answers from a scenario's
// upstream steps. Install it with pkg/http.SetTransport.
type MockTransport struct {
	mu      sync.Mutex
	dir     string
	steps   []mockEntry
	require bool
}

type mockEntry struct {
	step  MockStep
	calls int
}

func NewMockTransport(s *Scenario) *MockTransport {
	mt := &MockTransport{dir: s.dir, require: s.MockRequired}
	for _, step := range s.Upstream {
		mt.steps = append(mt.steps, mockEntry{step: step})
	}
	return mt
}

// RoundTrip answers with the first step whose prefix matches.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		e := &mt.steps[i]
		if e.step.MatchURL != "" && !strings.HasPrefix(req.URL.String(), e.step.MatchURL) {
			continue
		}
		e.calls++
		return mt.respond(req, e.step)
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing call to %s", req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("no mock configured")),
		Request:    req,
	}, nil
}

// Uncalled lists the steps nothing matched.
func (mt *MockTransport) Uncalled() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []string
	for _, e := range mt.steps {
		if e.calls == 0 {
			out = append(out, e.step.MatchURL)
		}
	}
	return out
}

func (mt *MockTransport) respond(req *http.Request, step MockStep) (*http.Response, error) {
	body, err := step.body(mt.dir)
	if err != nil {
		return nil, fmt.Errorf("testkit: mock body: %w", err)
	}
	code := step.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	ct := step.ContentType
	if ct == "" {
		ct = "application/x-yaml"
	}

	header := make(http.Header)
	header.Set("Content-Type", ct)
	return &http.Response{
		StatusCode:    code,
		Status:        fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
