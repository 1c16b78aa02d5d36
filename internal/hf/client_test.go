package hf

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifyFlattensNestedResponse(t *testing.T) {
	var gotPath, gotAuth, gotInputs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body inferenceRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotInputs = body.Inputs
		_, _ = w.Write([]byte(`[[{"label":"Joy","score":0.81},{"label":"sadness","score":0.12},{"label":"neutral","score":0.07}]]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key", "emo-model", nil)
	res, err := c.Classify(context.Background(), "today was great")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/emo-model" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotInputs != "today was great" {
		t.Fatalf("inputs = %q", gotInputs)
	}
	if res.TopLabel != "joy" || res.TopScore != 0.81 {
		t.Fatalf("top = %s %v", res.TopLabel, res.TopScore)
	}
	if len(res.Scores) != 3 || res.Scores["sadness"] != 0.12 {
		t.Fatalf("scores = %v", res.Scores)
	}
}

func TestClassifyAcceptsFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"fear","score":0.4},{"label":"anger","score":0.6}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	res, err := c.Classify(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TopLabel != "anger" {
		t.Fatalf("top = %s", res.TopLabel)
	}
}

func TestClassifyErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "http error", status: http.StatusServiceUnavailable, body: `{"error":"loading"}`},
		{name: "bad json", status: http.StatusOK, body: `{"error":"oops"}`},
		{name: "empty", status: http.StatusOK, body: `[[]]`, target: ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "key", "m", nil)
			_, err := c.Classify(context.Background(), "x")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestClassifyWithoutKeyIsDisabled(t *testing.T) {
	c := NewHTTPClient("", "", "m", nil)
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if _, err := c.Classify(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
}
