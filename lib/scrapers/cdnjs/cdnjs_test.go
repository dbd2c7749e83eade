package cdnjs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"studykit-backend/lib/scrapeerr"
	"testing"

	"github.com/stretchr/testify/require"
)

const hitsPayload = `{
	"hits": [
		{"name": "react-dom", "description": "React package for working with the DOM.", "version": "18.3.1", "filename": "umd/react-dom.production.min.js"},
		{"name": "react", "description": "React is a JavaScript library for building user interfaces.", "version": "18.3.1", "filename": "umd/react.production.min.js"},
		{"name": "react-router", "description": "Declarative routing for React", "version": "6.23.0", "filename": "react-router.production.min.js"}
	]
}`

func TestSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1/indexes/libraries/query", r.URL.Path)
		require.Equal(t, algoliaAppID, r.Header.Get("x-algolia-application-id"))
		require.Equal(t, algoliaAPIKey, r.Header.Get("x-algolia-api-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body["params"], "query=react")

		w.Write([]byte(hitsPayload))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	libraries, err := client.Search(context.Background(), "react")
	require.NoError(t, err)
	require.Len(t, libraries, 3)

	// the exact name match outranks algolia's popularity order
	require.Equal(t, "react", libraries[0].Name)
	require.Equal(t,
		"https://cdnjs.cloudflare.com/ajax/libs/react/18.3.1/umd/react.production.min.js",
		libraries[0].LatestFileUrl)
}

func TestSearchNoHits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": []}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	_, err := client.Search(context.Background(), "no-such-library-xyz")
	require.ErrorIs(t, err, scrapeerr.ErrNoResult)
}

func TestSearchRemoteError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Invalid Application-ID or API key", "status": 403}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	_, err := client.Search(context.Background(), "react")
	var remote scrapeerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "cdnjs", remote.Service)
	require.Equal(t, "403", remote.Code)
}

// a hit without a filename still shows up, just without a file url
func TestSearchHitWithoutFilename(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": [{"name": "weird", "version": "1.0.0"}]}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL})

	libraries, err := client.Search(context.Background(), "weird")
	require.NoError(t, err)
	require.Len(t, libraries, 1)
	require.Empty(t, libraries[0].LatestFileUrl)
}
