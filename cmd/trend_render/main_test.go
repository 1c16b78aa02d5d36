package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"mood-journal/internal/trend"
)

func newAPI(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entries" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunWritesSVG(t *testing.T) {
	srv := newAPI(t, http.StatusOK, `{"ok":true,"entries":[
		{"id":1,"created_at":"2026-04-01T10:00:00","top_emotion":"joy","top_score":0.8},
		{"id":2,"created_at":"2026-04-02T10:00:00","top_emotion":"fear","top_score":0.4}
	]}`)
	out := filepath.Join(t.TempDir(), "trend.svg")

	err := run(context.Background(), renderOptions{
		apiURL:   srv.URL,
		token:    "tok",
		out:      out,
		format:   "svg",
		width:    640,
		height:   320,
		timezone: "UTC",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("expected svg output")
	}
}

func TestRunWritesPNG(t *testing.T) {
	srv := newAPI(t, http.StatusOK, `{"ok":true,"entries":[]}`)
	out := filepath.Join(t.TempDir(), "trend.png")

	err := run(context.Background(), renderOptions{
		apiURL: srv.URL, token: "tok", out: out, format: "PNG", width: 320, height: 200, timezone: "UTC",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected png signature")
	}
}

func TestRunFetchFailureLeavesNoFile(t *testing.T) {
	srv := newAPI(t, http.StatusInternalServerError, `{}`)
	dir := t.TempDir()
	out := filepath.Join(dir, "trend.svg")

	err := run(context.Background(), renderOptions{
		apiURL: srv.URL, token: "tok", out: out, format: "svg", width: 320, height: 200, timezone: "UTC",
	}, zap.NewNop())
	if !errors.Is(err, trend.ErrDataFetch) {
		t.Fatalf("expected ErrDataFetch, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d files", len(entries))
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	if err := run(context.Background(), renderOptions{format: "gif", timezone: "UTC"}, zap.NewNop()); err == nil {
		t.Fatalf("expected format error")
	}
	if err := run(context.Background(), renderOptions{format: "svg", timezone: "Mars/Olympus"}, zap.NewNop()); err == nil {
		t.Fatalf("expected time zone error")
	}
}
