// Package monitoring reports failures that never reach a caller as a
// response: internal prediction errors and recovered handler panics.
package monitoring

import (
	"fmt"
	"net/http"
	"time"
)

// Reporter forwards failures to an error tracking backend.
type Reporter interface {
	CaptureError(err error, tags map[string]string)
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// NopReporter drops every report.
type NopReporter struct{}

func (NopReporter) CaptureError(error, map[string]string) {}
func (NopReporter) CapturePanic(any, map[string]string)   {}
func (NopReporter) Flush(time.Duration) bool              { return true }

// Recover wraps next so a panicking handler is reported and answered with a
// 500 instead of tearing down the connection.
func Recover(r Reporter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			r.CapturePanic(v, map[string]string{
				"method": req.Method,
				"path":   req.URL.Path,
			})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"internal error"}`)
		}()
		next.ServeHTTP(w, req)
	})
}
