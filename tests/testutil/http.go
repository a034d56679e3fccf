package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rms/backend/internal/interfaces/http/dto"
)

// DoRequest serves one request against h. A string body is sent verbatim so
// tests can post malformed JSON; any other non-nil body is marshalled.
func DoRequest(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeResponse parses the API envelope written by the handlers
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse response: %s", w.Body.String())
	return resp
}

// DecodeData re-reads the envelope's data member into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "Failed to parse response: %s", w.Body.String())
	return envelope.Data
}

// AssertErrorCode checks the status and the envelope's error code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) dto.Response {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := DecodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error, "Expected error object in response")
	assert.Equal(t, code, resp.Error.Code)
	return resp
}

// RouteCase is one request in a table of handler cases
type RouteCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	ExpectedStatus int
	// ExpectedCode is the envelope error code; empty expects success
	ExpectedCode string
	Validate     func(t *testing.T, resp dto.Response)
}

// RunRouteCases serves each case against the handler built by setup
func RunRouteCases(t *testing.T, setup func(t *testing.T) http.Handler, cases []RouteCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}
			w := DoRequest(setup(t), method, tc.Path, tc.Body)

			if tc.ExpectedStatus != 0 {
				assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
			}
			resp := DecodeResponse(t, w)
			if tc.ExpectedCode == "" {
				assert.True(t, resp.Success, "Expected success: %s", w.Body.String())
			} else {
				require.NotNil(t, resp.Error, "Expected error object in response")
				assert.Equal(t, tc.ExpectedCode, resp.Error.Code)
			}
			if tc.Validate != nil {
				tc.Validate(t, resp)
			}
		})
	}
}
