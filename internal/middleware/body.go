package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// bodyMethods are the methods that conventionally carry a request body.
// Capture is skipped entirely for everything else.
var bodyMethods = map[string]bool{
	http.MethodPatch: true,
	http.MethodPost:  true,
	http.MethodPut:   true,
}

// captureRequestBody reads the full request body for logging and reinstalls
// it so the downstream handler sees the identical original bytes. Returns the
// log representation: the newline-stripped text, or the decoded value when the
// request declares application/json and the text parses. A parse failure is a
// non-fatal degradation; the raw text is kept and no error is returned.
//
// An empty body yields the empty string with no decode attempt.
func captureRequestBody(r *http.Request) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}

	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		return nil, err
	}

	// Reinstall so any later read replays the same bytes. GetBody is kept
	// coherent for consumers that retry (e.g. httputil.ReverseProxy).
	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}

	payload := strings.ReplaceAll(string(raw), "\n", "")
	if payload == "" {
		return payload, nil
	}

	if r.Header.Get("Content-Type") == "application/json" {
		var decoded any
		if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
			return decoded, nil
		}
		// Malformed JSON: keep the raw text, never fail the request.
	}

	return payload, nil
}
