package report

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsDocument(t *testing.T) {
	var gotHTML, gotTrace, gotWidth, gotMargin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f, _, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		raw, _ := io.ReadAll(f)
		gotHTML = string(raw)
		gotTrace = r.Header.Get(traceHeader)
		gotWidth = r.FormValue("paperWidth")
		gotMargin = r.FormValue("marginTop")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	t.Cleanup(srv.Close)

	pdf, err := NewClient(srv.URL+"/").RenderHTML(t.Context(), "<h1>oi</h1>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "<h1>oi</h1>", gotHTML)
	assert.Equal(t, "8.27", gotWidth)
	assert.Equal(t, "0.4", gotMargin)
	assert.Len(t, gotTrace, 36)
}

func TestRenderHTMLFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("chromium busy\n"))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).RenderHTML(t.Context(), "<p/>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "chromium busy")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	require.NoError(t, NewClient(srv.URL).Ping(t.Context()))
}
