package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	errs   []error
	panics []any
	tags   []map[string]string
}

func (r *recordingReporter) CaptureError(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}

func (r *recordingReporter) CapturePanic(v any, tags map[string]string) {
	r.panics = append(r.panics, v)
	r.tags = append(r.tags, tags)
}

func (r *recordingReporter) Flush(time.Duration) bool { return true }

func TestRecover_ReportsPanic(t *testing.T) {
	rep := &recordingReporter{}
	h := Recover(rep, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict/wait-time", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	require.Len(t, rep.panics, 1)
	assert.Equal(t, "boom", rep.panics[0])
	assert.Equal(t, "/api/predict/wait-time", rep.tags[0]["path"])
	assert.Equal(t, http.MethodPost, rep.tags[0]["method"])
}

func TestRecover_PassThrough(t *testing.T) {
	rep := &recordingReporter{}
	h := Recover(rep, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rep.panics)
}

func TestRecover_AbortHandlerRepanics(t *testing.T) {
	rep := &recordingReporter{}
	h := Recover(rep, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Empty(t, rep.panics)
}

func TestNopReporter(t *testing.T) {
	var r Reporter = NopReporter{}
	r.CaptureError(errors.New("x"), nil)
	r.CapturePanic("y", nil)
	assert.True(t, r.Flush(time.Millisecond))
}
