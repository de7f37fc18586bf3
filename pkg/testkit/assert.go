package testkit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Wildcard in an expectation matches any value that is present.
const Wildcard = "*"

func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status code\nbody: %s", s.Name, body)
}

// AssertJSONSubset checks every key of s.Expect against actual.
func AssertJSONSubset(t *testing.T, s *Scenario, actual []byte) {
	t.Helper()
	if len(s.Expect) == 0 {
		return
	}

	var exp, act any
	if err := json.Unmarshal(s.Expect, &exp); err != nil {
		t.Fatalf("[%s] expect is not valid JSON: %v", s.Name, err)
	}
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON\nbody: %s", s.Name, actual) {
		return
	}
	for _, d := range Diff("", exp, act) {
		t.Errorf("[%s] %s", s.Name, d)
	}
}

// Diff reports where actual does not contain expected. Objects match when
// every expected key matches; arrays must have the same length.
func Diff(path string, expected, actual any) []string {
	if expected == Wildcard {
		return nil
	}
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", at(path), actual)}
		}
		var diffs []string
		for k, ev := range exp {
			av, present := act[k]
			if !present {
				diffs = append(diffs, fmt.Sprintf("%s.%s: missing", at(path), k))
				continue
			}
			diffs = append(diffs, Diff(path+"."+k, ev, av)...)
		}
		return diffs
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", at(path), actual)}
		}
		if len(exp) != len(act) {
			return []string{fmt.Sprintf("%s: expected %d elements, got %d", at(path), len(exp), len(act))}
		}
		var diffs []string
		for i := range exp {
			diffs = append(diffs, Diff(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i])...)
		}
		return diffs
	default:
		if !assert.ObjectsAreEqual(expected, actual) {
			return []string{fmt.Sprintf("%s: expected %v, got %v", at(path), expected, actual)}
		}
		return nil
	}
}

func at(path string) string {
	if path == "" {
		return "$"
	}
	return "$" + path
}
