package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport is an http.RoundTripper that answers from canned steps.
// Hand it to pkg/http through Options.Transport:
//
//	mt := testkit.NewMockTransport()
//	client := apphttp.NewClient(apphttp.Options{Transport: mt})
//	mt.Expect(testkit.MockStep{Match: "https://pay.example/", Status: 200, Body: []byte(`{"id":"pi_1"}`)})
type MockTransport struct {
	mu     sync.Mutex
	steps  []mockEntry
	strict bool
	calls  []*http.Request
}

type mockEntry struct {
	step  MockStep
	count int
}

// NewMockTransport returns a strict transport: unmatched calls fail.
func NewMockTransport(steps ...MockStep) *MockTransport {
	mt := &MockTransport{strict: true}
	for _, s := range steps {
		mt.Expect(s)
	}
	return mt
}

func (mt *MockTransport) Expect(s MockStep) {
	mt.mu.Lock()
	mt.steps = append(mt.steps, mockEntry{step: s})
	mt.mu.Unlock()
}

// Lenient makes unmatched calls answer 404 instead of failing.
func (mt *MockTransport) Lenient() *MockTransport {
	mt.strict = false
	return mt
}

// Reset drops steps and recorded calls.
func (mt *MockTransport) Reset() {
	mt.mu.Lock()
	mt.steps = nil
	mt.calls = nil
	mt.mu.Unlock()
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, req)
	url := req.URL.String()
	for i := range mt.steps {
		e := &mt.steps[i]
		if !strings.HasPrefix(url, e.step.Match) {
			continue
		}
		e.count++
		return respond(req, e.step), nil
	}

	if mt.strict {
		return nil, fmt.Errorf("testkit: unexpected outgoing %s %s", req.Method, url)
	}
	return respond(req, MockStep{Status: http.StatusNotFound, Body: []byte(`{"error":"no mock configured"}`)}), nil
}

// Calls returns the requests seen so far.
func (mt *MockTransport) Calls() []*http.Request {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]*http.Request(nil), mt.calls...)
}

// Uncalled lists required steps that never matched a request.
func (mt *MockTransport) Uncalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if !e.step.Optional && e.count == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock %q was never called", e.step.Match))
		}
	}
	return errs
}

func respond(req *http.Request, s MockStep) *http.Response {
	code := s.Status
	if code == 0 {
		code = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.Body)),
		Request:    req,
	}
}
