package convertio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"studykit-backend/lib/pollutil"
	"studykit-backend/lib/scrapeerr"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fastPoll = pollutil.Options{
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxElapsed:      5 * time.Second,
}

func TestConvert(t *testing.T) {
	var polls atomic.Int32
	output := []byte("%PDF-1.4 converted bytes")

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/convert":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "test-key", body["apikey"])
			require.Equal(t, "base64", body["input"])
			require.Equal(t, "notes.docx", body["filename"])
			require.Equal(t, "pdf", body["outputformat"])

			decoded, err := base64.StdEncoding.DecodeString(body["file"])
			require.NoError(t, err)
			require.Equal(t, []byte("input bytes"), decoded)

			w.Write([]byte(`{"status": "ok", "data": {"id": "conv-1"}}`))
		case "/convert/conv-1/status":
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"status": "ok", "data": {"step": "convert", "step_percent": 40}}`))
				return
			}
			w.Write([]byte(`{"status": "ok", "data": {
				"step": "finish",
				"step_percent": 100,
				"output": {"url": "` + ts.URL + `/dl/conv-1", "size": "24"}
			}}`))
		case "/dl/conv-1":
			w.Write(output)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL, ApiKey: "test-key", Poll: fastPoll})

	result, err := client.Convert(context.Background(), Input{
		File:         []byte("input bytes"),
		Filename:     "notes.docx",
		OutputFormat: "pdf",
	})
	require.NoError(t, err)

	require.Equal(t, int64(24), result.Size)
	require.Equal(t, output, result.File)
	require.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestStartRemoteError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "error": "This API Key is invalid"}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL, ApiKey: "bad-key", Poll: fastPoll})

	_, err := client.Start(context.Background(), Input{
		File:         []byte("x"),
		Filename:     "x.txt",
		OutputFormat: "pdf",
	})
	var remote scrapeerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "convertio", remote.Service)
}

// an error envelope mid-poll is terminal, not retried
func TestWaitRemoteError(t *testing.T) {
	var polls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/convert" {
			w.Write([]byte(`{"status": "ok", "data": {"id": "conv-2"}}`))
			return
		}
		polls.Add(1)
		w.Write([]byte(`{"status": "error", "error": "conversion failed"}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL, ApiKey: "test-key", Poll: fastPoll})

	job, err := client.Start(context.Background(), Input{
		File:         []byte("x"),
		Filename:     "x.txt",
		OutputFormat: "pdf",
	})
	require.NoError(t, err)

	_, err = job.Wait(context.Background())
	var remote scrapeerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, int32(1), polls.Load())
}

func TestWaitCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/convert" {
			w.Write([]byte(`{"status": "ok", "data": {"id": "conv-3"}}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "data": {"step": "wait"}}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{BaseUrl: ts.URL, ApiKey: "test-key", Poll: fastPoll})

	job, err := client.Start(context.Background(), Input{
		File:         []byte("x"),
		Filename:     "x.txt",
		OutputFormat: "pdf",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = job.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
