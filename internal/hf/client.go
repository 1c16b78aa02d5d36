package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mood-journal/internal/emotion"
)

// ErrEmptyResponse indica que el modelo no devolvio etiquetas.
var ErrEmptyResponse = errors.New("hf empty response")

// Classifier define la interfaz para puntuar emociones de un texto.
type Classifier interface {
	Classify(ctx context.Context, text string) (emotion.Result, error)
}

type logger interface {
	Printf(format string, v ...interface{})
}

// HTTPClient implementa Classifier contra la Inference API de Hugging Face.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  logger
}

// NewHTTPClient construye un cliente apuntando al modelo de emociones configurado.
func NewHTTPClient(baseURL, apiKey, model string, log any) *HTTPClient {
	l, _ := log.(logger)
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/models"
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  l,
	}
}

// Enabled es falso cuando no hay credenciales; el llamador usa la heuristica.
func (c *HTTPClient) Enabled() bool {
	return c != nil && c.apiKey != "" && c.model != ""
}

func (c *HTTPClient) Classify(ctx context.Context, text string) (emotion.Result, error) {
	if !c.Enabled() {
		return emotion.Result{}, errors.New("hf client not configured")
	}

	bodyBytes, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return emotion.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.model, bytes.NewReader(bodyBytes))
	if err != nil {
		return emotion.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return emotion.Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return emotion.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Printf("hf error status %d: %s", resp.StatusCode, string(respBody))
		}
		return emotion.Result{}, fmt.Errorf("hf http error: status=%d", resp.StatusCode)
	}

	labels, err := parseLabels(respBody)
	if err != nil {
		return emotion.Result{}, err
	}
	return toResult(labels)
}

// parseLabels acepta [[{label,score}]] y tambien la forma plana [{label,score}].
func parseLabels(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		var flat []labelScore
		for _, group := range nested {
			flat = append(flat, group...)
		}
		return flat, nil
	}
	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return flat, nil
}

func toResult(labels []labelScore) (emotion.Result, error) {
	scores := make(map[string]float64, len(labels))
	for _, ls := range labels {
		label := strings.ToLower(strings.TrimSpace(ls.Label))
		if label == "" {
			continue
		}
		if prev, ok := scores[label]; !ok || ls.Score > prev {
			scores[label] = ls.Score
		}
	}
	if len(scores) == 0 {
		return emotion.Result{}, ErrEmptyResponse
	}
	top, score := emotion.TopOf(scores)
	return emotion.Result{TopLabel: top, TopScore: score, Scores: scores}, nil
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
