// Package testkit drives API tests from JSON scenarios. A scenario file is
// an array of requests run in order against one handler, so later steps see
// the state earlier ones left behind:
//
//	[
//	  {
//	    "name": "import price list",
//	    "method": "POST",
//	    "url": "/api/partner/update",
//	    "as": {"id": 2, "role": "shop"},
//	    "body": {"url": "https://partner.test/prices.yaml"},
//	    "upstream": [{"matchUrl": "https://partner.test/", "file": "prices.yaml"}],
//	    "expectedCode": 200,
//	    "expect": {"data": {"shop": "Связной", "products": 3}}
//	  }
//	]
//
//	testkit.RunFile(t, handler, "testdata/partner.json")
//
// "expect" is a subset: only the keys it lists are compared, and the string
// "*" matches any present value.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Principal is the user a request is made as.
type Principal struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

// Scenario is one request and the answer it must get.
type Scenario struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
	As      *Principal        `json:"as"`

	ExpectedCode int             `json:"expectedCode"`
	Expect       json.RawMessage `json:"expect"`

	// Upstream stubs outgoing pkg/http calls made while handling the request.
	Upstream []MockStep `json:"upstream"`
	// MockRequired fails outgoing calls that match no step instead of
	// answering 404.
	MockRequired bool `json:"mockRequired"`

	dir string
}

// MockStep answers outgoing requests whose URL starts with MatchURL (empty
// matches everything). The body comes from Body or, relative to the
// scenario file, File.
type MockStep struct {
	MatchURL    string `json:"matchUrl"`
	StatusCode  int    `json:"statusCode"`
	Body        string `json:"body"`
	File        string `json:"file"`
	ContentType string `json:"contentType"`
}

// LoadFile reads an array of scenarios.
func LoadFile(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var list []*Scenario
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	for i, s := range list {
		s.dir = filepath.Dir(abs)
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q scenario %d: %w", abs, i, err)
		}
	}
	return list, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	s.Method = strings.ToUpper(s.Method)
	if s.ExpectedCode == 0 {
		s.ExpectedCode = 200
	}
	return nil
}

// body returns the step's response body.
func (m MockStep) body(dir string) ([]byte, error) {
	if m.File == "" {
		return []byte(m.Body), nil
	}
	path := m.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return os.ReadFile(path)
}
