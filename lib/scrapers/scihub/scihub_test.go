package scihub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/webcache"
	"testing"

	"github.com/stretchr/testify/require"
)

// tests pass an explicit user agent so client setup stays offline
const testUserAgent = "test-agent/1.0"

func newTestClient(t *testing.T, opts ClientOptions) *Client {
	opts.UserAgent = testUserAgent
	client, err := NewClient(opts)
	require.NoError(t, err)
	return client
}

func TestLocateIframe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/10.1000/182", r.URL.Path)
		w.Write([]byte(`<html><body>
			<iframe id="pdf" src="//dacemirror.example.com/journal/paper.pdf#navpanes=0&view=FitH"></iframe>
		</body></html>`))
	}))
	defer ts.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{ts.URL}})

	paper, err := client.Locate(context.Background(), "10.1000/182")
	require.NoError(t, err)

	require.Equal(t, "10.1000/182", paper.Ref)
	require.Equal(t, "https://dacemirror.example.com/journal/paper.pdf", paper.PdfUrl)
	require.Equal(t, ts.URL, paper.Mirror)
}

func TestLocateEmbedFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<embed type="application/pdf" src="/downloads/paper.pdf"></embed>
		</body></html>`))
	}))
	defer ts.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{ts.URL}})

	paper, err := client.Locate(context.Background(), "10.1000/182")
	require.NoError(t, err)
	require.Equal(t, ts.URL+"/downloads/paper.pdf", paper.PdfUrl)
}

func TestLocateTriesNextMirror(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>article not found</body></html>`))
	}))
	defer dead.Close()

	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><iframe id="pdf" src="/paper.pdf"></iframe></body></html>`))
	}))
	defer alive.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{dead.URL, alive.URL}})

	paper, err := client.Locate(context.Background(), "10.1000/182")
	require.NoError(t, err)
	require.Equal(t, alive.URL, paper.Mirror)
}

func TestLocateAllMirrorsFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer ts.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{ts.URL, ts.URL}})

	_, err := client.Locate(context.Background(), "10.1000/404")
	require.ErrorIs(t, err, scrapeerr.ErrMarkupChanged)
}

func TestLocateCacheHit(t *testing.T) {
	cache, err := webcache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><body><iframe id="pdf" src="/paper.pdf"></iframe></body></html>`))
	}))
	defer ts.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{ts.URL}, Cache: cache})

	first, err := client.Locate(context.Background(), "10.1000/182")
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	// second lookup answers from the cache without touching the mirror
	second, err := client.Locate(context.Background(), "10.1000/182")
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	require.Equal(t, first.PdfUrl, second.PdfUrl)
}

func TestFetch(t *testing.T) {
	pdf := "%PDF-1.7\nfake pdf body"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pdf") {
			w.Write([]byte(pdf))
			return
		}
		w.Write([]byte(`<html><body>not a pdf</body></html>`))
	}))
	defer ts.Close()

	client := newTestClient(t, ClientOptions{Mirrors: []string{ts.URL}})

	body, err := client.Fetch(context.Background(), Paper{PdfUrl: ts.URL + "/paper.pdf"})
	require.NoError(t, err)
	require.Equal(t, []byte(pdf), body)

	_, err = client.Fetch(context.Background(), Paper{PdfUrl: ts.URL + "/captcha"})
	require.ErrorIs(t, err, scrapeerr.ErrMarkupChanged)
}
