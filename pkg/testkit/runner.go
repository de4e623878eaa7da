package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Harness fires flows at Handler.
type Harness struct {
	Handler http.Handler
	// Tokens maps a step's "as" value to a bearer token.
	Tokens map[string]string
	// Transport, when set, receives each flow's mocks.
	Transport *MockTransport
	// Vars seeds the capture table of every flow (fixture IDs and the like).
	Vars map[string]interface{}
}

// Run executes the flow in path as a subtest.
func (h *Harness) Run(t *testing.T, path string) {
	t.Helper()
	f, err := LoadFlow(path)
	require.NoError(t, err)
	t.Run(f.Name, func(t *testing.T) { h.runFlow(t, f) })
}

// RunDir runs every *.json flow in dir.
func (h *Harness) RunDir(t *testing.T, dir string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "testkit: no flows in %s", dir)

	for _, p := range paths {
		if strings.HasSuffix(p, "_req.json") || strings.HasSuffix(p, "_res.json") {
			continue
		}
		h.Run(t, p)
	}
}

func (h *Harness) runFlow(t *testing.T, f *Flow) {
	vars := make(map[string]interface{}, len(h.Vars))
	for k, v := range h.Vars {
		vars[k] = v
	}

	if h.Transport != nil {
		h.Transport.Reset()
		for _, m := range f.Mocks {
			h.Transport.Expect(m)
		}
		defer func() {
			for _, err := range h.Transport.Uncalled() {
				assert.NoError(t, err, "[%s]", f.Name)
			}
		}()
	}

	for i := range f.Steps {
		s := &f.Steps[i]
		if !h.runStep(t, f, s, vars) {
			return
		}
	}
}

// runStep reports whether later steps should still run.
func (h *Harness) runStep(t *testing.T, f *Flow, s *Step, vars map[string]interface{}) bool {
	t.Helper()
	label := f.Name + "/" + s.Name

	raw, err := f.body(s)
	require.NoError(t, err, "[%s] body", label)

	var body io.Reader
	if raw != nil {
		body = bytes.NewReader(substituteJSON(raw, vars))
	}
	req := httptest.NewRequest(s.Method, substitute(s.URL, vars), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != "" {
		tok, ok := h.Tokens[s.As]
		require.True(t, ok, "[%s] no token for %q", label, s.As)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, substitute(v, vars))
	}

	rec := httptest.NewRecorder()
	h.Handler.ServeHTTP(rec, req)

	if !assert.Equal(t, s.Status, rec.Code, "[%s] status\nbody: %s", label, rec.Body.String()) {
		return false
	}

	var doc interface{}
	if len(s.Expect) > 0 || len(s.Capture) > 0 || s.Code != "" {
		if !assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), "[%s] response is not JSON: %s", label, rec.Body.String()) {
			return false
		}
	}
	if s.Code != "" {
		AssertPaths(t, label, doc, map[string]interface{}{"error.code": s.Code})
	}
	AssertPaths(t, label, doc, s.Expect)

	if s.ResponseFile != "" {
		expected, err := readFile(f.path(s.ResponseFile))
		require.NoError(t, err, "[%s] response file", label)
		AssertJSONEqual(t, label, expected, rec.Body.Bytes())
	}

	for name, path := range s.Capture {
		v, ok := Lookup(doc, path)
		if !assert.True(t, ok, "[%s] capture %s: missing %s", label, name, path) {
			return false
		}
		vars[name] = v
	}
	return true
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// substitute replaces {{name}} with the captured value as text.
func substitute(s string, vars map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return stringify(v)
		}
		return m
	})
}

var quotedPlaceholder = regexp.MustCompile(`"\{\{(\w+)\}\}"`)

// substituteJSON first swaps whole-string placeholders for the JSON value,
// then any remaining ones inside strings.
func substituteJSON(raw []byte, vars map[string]interface{}) []byte {
	out := quotedPlaceholder.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := string(quotedPlaceholder.FindSubmatch(m)[1])
		v, ok := vars[name]
		if !ok {
			return m
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return m
		}
		return enc
	})
	return []byte(substitute(string(out), vars))
}
