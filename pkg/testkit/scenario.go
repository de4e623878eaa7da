// Package testkit drives API tests from JSON scenario files.
//
// A scenario file holds one flow: an ordered list of steps fired against the
// real handler. Steps can capture values from a response and reuse them in
// later URLs and bodies with {{name}}:
//
//	{
//	  "name": "checkout",
//	  "steps": [
//	    {"name": "add to cart", "as": "user", "method": "POST", "url": "/api/cart/items",
//	     "body": {"productId": "{{productId}}", "quantity": 3}, "status": 200},
//	    {"name": "place order", "as": "user", "method": "POST", "url": "/api/orders",
//	     "bodyFile": "order_req.json", "status": 201,
//	     "expect": {"data.order.total": 3000}, "capture": {"orderId": "data.order.id"}}
//	  ]
//	}
//
//	func TestAPI(t *testing.T) {
//	    h := testkit.Harness{Handler: handler, Tokens: map[string]string{"user": tok}}
//	    h.RunDir(t, "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flow is one scenario file.
type Flow struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`

	// Mocks answer outgoing calls made through pkg/http while the flow runs.
	Mocks []MockStep `json:"mocks"`

	dir string
}

// Step is one request and its expectations.
type Step struct {
	Name     string            `json:"name"`
	As       string            `json:"as"`
	Method   string            `json:"method"`
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers"`
	Body     json.RawMessage   `json:"body"`
	BodyFile string            `json:"bodyFile"`

	Status int `json:"status"`
	// Code is the envelope error code expected on failures.
	Code string `json:"code"`
	// Expect maps dotted paths into the response JSON to expected values.
	Expect map[string]interface{} `json:"expect"`
	// ResponseFile is compared in full against the response body.
	ResponseFile string `json:"responseFile"`
	// Capture stores response values under a name for later steps.
	Capture map[string]string `json:"capture"`
}

// MockStep answers outgoing requests whose URL starts with Match.
type MockStep struct {
	Match    string          `json:"match"`
	Status   int             `json:"status"`
	Body     json.RawMessage `json:"body"`
	Optional bool            `json:"optional"`
}

// LoadFlow reads and checks a scenario file.
func LoadFlow(path string) (*Flow, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var f Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	f.dir = filepath.Dir(abs)

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("testkit: %s: %w", f.Name, err)
	}
	return &f, nil
}

func (f *Flow) validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i := range f.Steps {
		s := &f.Steps[i]
		if s.URL == "" {
			return fmt.Errorf("step %d: url is required", i)
		}
		if s.Status == 0 {
			return fmt.Errorf("step %d: status is required", i)
		}
		if s.Method == "" {
			s.Method = "GET"
		}
		s.Method = strings.ToUpper(s.Method)
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s %s", s.Method, s.URL)
		}
	}
	for i, m := range f.Mocks {
		if m.Match == "" {
			return fmt.Errorf("mock %d: match is required", i)
		}
	}
	return nil
}

// path resolves a file named in the flow relative to the flow file.
func (f *Flow) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.dir, name)
}

// body returns the request payload of s, inline or from its file.
func (f *Flow) body(s *Step) ([]byte, error) {
	if s.BodyFile != "" {
		return os.ReadFile(f.path(s.BodyFile))
	}
	if len(s.Body) == 0 {
		return nil, nil
	}
	return s.Body, nil
}

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }
