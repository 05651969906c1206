package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/G1D0/Http-Interceptor/internal/observe"
)

// Severity is the event severity for a request's log events. It starts at
// INFO and escalates to ERROR on downstream failure; it never reverts.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// String returns the conventional level name.
func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "INFO"
}

// Level returns the numeric slog level.
func (s Severity) Level() slog.Level {
	if s == SeverityError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// RequestContext accumulates everything known about one request across its
// lifetime. It is created once per intercepted request, owned exclusively by
// the interceptor goroutine handling that request, and discarded after the
// terminal event. No field is shared across requests.
type RequestContext struct {
	Method      string
	QueryParams url.Values
	Timestamp   time.Time // set exactly once, at creation
	Severity    Severity
	URL         string // raw URL as received
	MaskedURL   string // equals URL until the matched route template is known
	RequestPath string
	Headers     http.Header
	Facility    string // optional logical service name
	ActionName  string // "<facility>.Interceptor", or "Interceptor"
	TraceID     string

	HasRequestBody bool
	RequestBody    any // decoded JSON or newline-stripped text

	StatusCode   int
	ResponseBody string
	Elapsed      float64 // seconds, rounded to 4 decimal places

	Exception  string
	StackTrace string

	// start retains the monotonic clock reading Timestamp loses when
	// converted to UTC, so Elapsed cannot go negative under a wall-clock
	// step.
	start time.Time
}

// actionBaseName is the unqualified action name in emitted events.
const actionBaseName = "Interceptor"

// newRequestContext builds the context from the inbound request. The masked
// URL starts equal to the raw URL; it is rewritten once the matched route
// template becomes known.
func newRequestContext(r *http.Request, facility string) *RequestContext {
	rawURL := requestURL(r)

	action := actionBaseName
	if facility != "" {
		action = facility + "." + actionBaseName
	}

	now := time.Now()

	return &RequestContext{
		Method:      r.Method,
		QueryParams: r.URL.Query(),
		Timestamp:   now.UTC(),
		start:       now,
		Severity:    SeverityInfo,
		URL:         rawURL,
		MaskedURL:   rawURL,
		RequestPath: r.URL.Path,
		Headers:     r.Header.Clone(),
		Facility:    facility,
		ActionName:  action,
		TraceID:     observe.TraceIDFrom(r.Context()),
	}
}

// fail escalates the context to the error state. StatusCode is forced to 500;
// the original failure still propagates to the caller, this only records it.
func (c *RequestContext) fail(message, stackTrace string) {
	c.Severity = SeverityError
	c.Exception = message
	c.StackTrace = stackTrace
	c.StatusCode = http.StatusInternalServerError
}

// finish computes the elapsed time. Called exactly once, immediately before
// the terminal event. When now carries a monotonic reading (any plain
// time.Now result does), the subtraction is monotonic and the result cannot
// be negative.
func (c *RequestContext) finish(now time.Time) {
	c.Elapsed = round4(now.Sub(c.start).Seconds())
}

// Fields flattens the context into the flat mapping handed to the logging
// collaborator. Both the level name and the numeric level are emitted;
// downstream consumers of either stay satisfied.
func (c *RequestContext) Fields() map[string]any {
	fields := map[string]any{
		"method":       c.Method,
		"query_params": flattenValues(c.QueryParams),
		"timestamp":    c.Timestamp,
		"level_name":   c.Severity.String(),
		"level":        int(c.Severity.Level()),
		"url":          c.URL,
		"url_mask":     c.MaskedURL,
		"request_path": c.RequestPath,
		"headers":      flattenHeader(c.Headers),
		"action_name":  c.ActionName,
	}
	if c.Facility != "" {
		fields["facility"] = c.Facility
	}
	if c.TraceID != "" {
		fields["trace_id"] = c.TraceID
	}
	if c.HasRequestBody {
		fields["request_data"] = c.RequestBody
	}
	if c.StatusCode != 0 {
		fields["status_code"] = c.StatusCode
		fields["response_data"] = c.ResponseBody
		fields["elapsed"] = c.Elapsed
	}
	if c.Severity == SeverityError {
		fields["exception"] = c.Exception
		fields["stack_trace"] = c.StackTrace
	}
	return fields
}

// round4 rounds to 4 decimal places.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// flattenValues keeps one value per key; a repeated key keeps its last value.
func flattenValues(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			out[k] = vals[len(vals)-1]
		}
	}
	return out
}

// flattenHeader keeps one value per header key, last value winning.
func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		if len(vals) > 0 {
			out[k] = vals[len(vals)-1]
		}
	}
	return out
}

// requestURL reconstructs the full URL of the inbound request.
func requestURL(r *http.Request) string {
	return scheme(r) + "://" + r.Host + r.URL.RequestURI()
}

// baseURL is the scheme://host/ prefix used for masked URLs.
func baseURL(r *http.Request) string {
	return scheme(r) + "://" + r.Host + "/"
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
