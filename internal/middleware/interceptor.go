package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/G1D0/Http-Interceptor/internal/observe"
)

// Interceptor logs the full lifecycle of every request passing through it:
// a "received" event before the downstream handler runs, then exactly one
// terminal event — "sent" on success, "failed" on panic — after it finishes.
// Request bodies are captured without consuming them and response bodies are
// re-assembled from however many chunks the handler wrote.
//
// All configuration is explicit and per-instance; two interceptors with
// different exclusion sets or loggers coexist without shared state.
type Interceptor struct {
	log          observe.EventLogger
	exclude      *ExclusionSet
	facility     string
	routePattern func(*http.Request) string
	metrics      *observe.Metrics
}

// InterceptorConfig configures an Interceptor.
type InterceptorConfig struct {
	// Logger receives every emitted event. Required in practice; a nil
	// logger discards events.
	Logger observe.EventLogger

	// Exclude is the exclusion rule set. Nil means nothing is excluded.
	Exclude *ExclusionSet

	// Facility is the optional logical service name. When set, emitted
	// events carry the action name "<facility>.Interceptor".
	Facility string

	// RoutePattern returns the matched route template for a request, once
	// dispatch has happened. Defaults to reading http.Request.Pattern,
	// which net/http's ServeMux populates. Return "" when unknown; the
	// masked URL then stays equal to the raw URL.
	RoutePattern func(*http.Request) string

	// Metrics, when non-nil, receives per-request counters and durations.
	Metrics *observe.Metrics
}

// NewInterceptor builds an Interceptor from explicit configuration.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopEventLogger{}
	}
	if cfg.RoutePattern == nil {
		cfg.RoutePattern = func(r *http.Request) string { return r.Pattern }
	}
	return &Interceptor{
		log:          cfg.Logger,
		exclude:      cfg.Exclude,
		facility:     cfg.Facility,
		routePattern: cfg.RoutePattern,
		metrics:      cfg.Metrics,
	}
}

// Middleware returns the interceptor as a chainable Middleware.
func (ic *Interceptor) Middleware() Middleware {
	return ic.Handler
}

// Handler wraps next with the interception protocol.
func (ic *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ic.exclude.Match(requestURL(r)) {
			// Exempt: no context, no events, response passes through
			// untouched.
			if ic.metrics != nil {
				ic.metrics.ExcludedTotal.Inc()
			}
			next.ServeHTTP(w, r)
			return
		}
		ic.serve(w, r, next)
	})
}

func (ic *Interceptor) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := newRequestContext(r, ic.facility)

	if bodyMethods[r.Method] {
		payload, err := captureRequestBody(r)
		if err != nil {
			// A body that cannot be read (client disconnect, timeout)
			// fails the request before dispatch, with the same event
			// pair a downstream failure would produce.
			ic.emit(ctx, "HTTP Request "+ctx.URL)
			ctx.fail(err.Error(), string(debug.Stack()))
			ctx.finish(time.Now())
			ic.emit(ctx, "HTTP Error "+ctx.URL)
			ic.observeFailure(ctx)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		// Body-carrying methods always populate the field; an empty
		// body logs as the empty string.
		ctx.HasRequestBody = true
		ctx.RequestBody = payload
	}

	ic.emit(ctx, "HTTP Request "+ctx.URL)

	rec := NewResponseRecorder()

	// The masked-URL rewrite is the "finally" step: it runs after next
	// returns or panics, before the terminal event of either path.
	func() {
		defer func() {
			ic.rewriteMaskedURL(ctx, r)
			if v := recover(); v != nil {
				ctx.fail(fmt.Sprint(v), string(debug.Stack()))
				ctx.finish(time.Now())
				ic.emit(ctx, "HTTP Error "+ctx.URL)
				ic.observeFailure(ctx)
				// Logging is a side effect, not an error boundary:
				// re-propagate the original failure unchanged so the
				// server's own recovery still runs.
				panic(v)
			}
		}()
		next.ServeHTTP(rec, r)
	}()

	ctx.StatusCode = rec.Status()
	ctx.ResponseBody = string(rec.Body())
	ctx.finish(time.Now())
	ic.emit(ctx, "HTTP Response "+ctx.URL)
	ic.observeSuccess(ctx)

	// The recorder drained whatever the handler streamed, so an equivalent
	// complete response has to be rebuilt for the client.
	rec.WriteTo(w)
}

// rewriteMaskedURL substitutes the matched route template into the masked
// URL: {base_url}{template}, template without its leading slash. A ServeMux
// pattern may carry a "METHOD " prefix, which is not part of the path.
func (ic *Interceptor) rewriteMaskedURL(ctx *RequestContext, r *http.Request) {
	tmpl := ic.routePattern(r)
	if tmpl == "" {
		return
	}
	if i := strings.IndexByte(tmpl, ' '); i >= 0 {
		tmpl = tmpl[i+1:]
	}
	if i := strings.IndexByte(tmpl, '/'); i >= 0 {
		// Drop any host prefix along with the leading slash.
		tmpl = tmpl[i+1:]
	}
	ctx.MaskedURL = baseURL(r) + tmpl
}

func (ic *Interceptor) emit(ctx *RequestContext, event string) {
	ic.log.Log(ctx.Severity.Level(), event, ctx.Fields())
}

func (ic *Interceptor) observeSuccess(ctx *RequestContext) {
	if ic.metrics == nil {
		return
	}
	ic.metrics.RequestsTotal.WithLabelValues(ctx.Method, strconv.Itoa(ctx.StatusCode)).Inc()
	ic.metrics.RequestDuration.WithLabelValues(ctx.Method).Observe(ctx.Elapsed)
}

func (ic *Interceptor) observeFailure(ctx *RequestContext) {
	if ic.metrics == nil {
		return
	}
	ic.metrics.RequestsTotal.WithLabelValues(ctx.Method, strconv.Itoa(ctx.StatusCode)).Inc()
	ic.metrics.RequestDuration.WithLabelValues(ctx.Method).Observe(ctx.Elapsed)
	ic.metrics.FailuresTotal.WithLabelValues(ctx.Method).Inc()
}
