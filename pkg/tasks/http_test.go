package tasks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/expressflow/pkg/api"
)

func TestHTTPInvoker_RoundTrip(t *testing.T) {
	var (
		got    api.Payload
		gotReq *http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"status":"SUCCEED","value":75}`)
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(srv.URL)
	inv.Header = http.Header{"X-Api-Key": []string{"secret"}}

	res, err := inv.Invoke(context.Background(), api.Payload{"value": 75.0})
	require.NoError(t, err)
	require.Equal(t, api.Succeeded(75.0), res, "legacy SUCCEED spelling is accepted")
	require.Equal(t, api.Payload{"value": 75.0}, got)
	require.Equal(t, http.MethodPost, gotReq.Method)
	require.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	require.Equal(t, "secret", gotReq.Header.Get("X-Api-Key"))
}

func TestHTTPInvoker_FailedIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"FAILED","value":30}`)
	}))
	defer srv.Close()

	res, err := NewHTTPInvoker(srv.URL).Invoke(context.Background(), api.Payload{"value": 30.0})
	require.NoError(t, err)
	require.Equal(t, api.Failed(30.0), res)
}

func TestHTTPInvoker_Faults(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>")
		},
		"unknown status": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":"MAYBE"}`)
		},
		"missing status": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"value":1}`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewHTTPInvoker(srv.URL).Invoke(context.Background(), api.Payload{"value": 1.0})
			require.Error(t, err)
		})
	}
}

func TestHTTPInvoker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPInvoker(url).Invoke(context.Background(), api.Payload{})
	require.Error(t, err)
}

func TestHTTPInvoker_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPInvoker(srv.URL).Invoke(ctx, api.Payload{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
