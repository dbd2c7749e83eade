package quizlet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"studykit-backend/lib/scrapeerr"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractSetID(t *testing.T) {
	cases := []struct {
		link     string
		expected int64
	}{
		{"https://quizlet.com/123456789/ap-biology-unit-1-flash-cards/", 123456789},
		{"https://quizlet.com/gb/987654/spanish-vocab-flash-cards/", 987654},
		{"https://quizlet.com/42", 42},
	}

	for _, test := range cases {
		id, err := ExtractSetID(test.link)
		require.NoError(t, err, test.link)
		require.Equal(t, test.expected, id)
	}
}

func TestExtractSetIDMissing(t *testing.T) {
	_, err := ExtractSetID("https://quizlet.com/latest")
	require.Error(t, err)
}

const setPayload = `{
	"responses": [{"models": {"set": [{"title": "AP Biology Unit 1"}]}}]
}`

const itemsPayload = `{
	"responses": [{
		"models": {
			"studiableItem": [
				{
					"cardSides": [
						{"label": "word", "media": [{"type": 1, "plainText": "mitochondria"}]},
						{"label": "definition", "media": [{"type": 1, "plainText": "powerhouse of the cell"}]}
					]
				},
				{
					"cardSides": [
						{"label": "word", "media": [{"type": 1, "plainText": "ribosome"}]},
						{"label": "definition", "media": [
							{"type": 2, "plainText": ""},
							{"type": 1, "plainText": "site of protein synthesis"}
						]}
					]
				}
			]
		},
		"paging": {"token": ""}
	}]
}`

func TestFlashcardSet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webapi/3.4/sets/123456789":
			w.Write([]byte(setPayload))
		case "/webapi/3.4/studiable-item-documents":
			require.Equal(t, "123456789", r.URL.Query().Get("filters[studiableContainerId]"))
			require.Equal(t, "1", r.URL.Query().Get("filters[studiableContainerType]"))
			w.Write([]byte(itemsPayload))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseUrl: ts.URL})
	require.NoError(t, err)

	set, err := client.FlashcardSet(context.Background(), 123456789)
	require.NoError(t, err)

	require.Equal(t, int64(123456789), set.ID)
	require.Equal(t, "AP Biology Unit 1", set.Title)
	require.Equal(t, []Card{
		{Term: "mitochondria", Definition: "powerhouse of the cell"},
		{Term: "ribosome", Definition: "site of protein synthesis"},
	}, set.Cards)
}

func TestFlashcardSetRemoteError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webapi/3.4/sets/42":
			w.Write([]byte(setPayload))
		default:
			w.Write([]byte(`{"error": {"code": 403, "message": "set is private"}}`))
		}
	}))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseUrl: ts.URL})
	require.NoError(t, err)

	_, err = client.FlashcardSet(context.Background(), 42)
	var remote scrapeerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "quizlet", remote.Service)
	require.Equal(t, "403", remote.Code)
}

func TestFlashcardSetEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webapi/3.4/sets/42":
			w.Write([]byte(setPayload))
		default:
			w.Write([]byte(`{"responses": [{"models": {"studiableItem": []}, "paging": {"token": ""}}]}`))
		}
	}))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseUrl: ts.URL})
	require.NoError(t, err)

	_, err = client.FlashcardSet(context.Background(), 42)
	require.ErrorIs(t, err, scrapeerr.ErrNoResult)
}
