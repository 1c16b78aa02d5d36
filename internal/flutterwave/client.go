package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMissingTransaction se devuelve cuando el id de transaccion esta vacio.
var ErrMissingTransaction = errors.New("missing transaction id")

// Verifier consulta el estado de una transaccion en Flutterwave.
type Verifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (Verification, error)
}

// Verification es la respuesta de /transactions/{id}/verify. Raw guarda el cuerpo tal cual.
type Verification struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    TransactionData `json:"data"`
	Raw     string          `json:"-"`
}

type TransactionData struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Succeeded indica que el gateway reporta exito a nivel de respuesta y de transaccion.
func (v Verification) Succeeded() bool {
	return v.Status == "success" && v.Data.Status == "successful"
}

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewClient(baseURL, secretKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com/v3"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    httpClient,
	}
}

// VerifyTransaction no falla por un cuerpo no JSON; devuelve Verification con Raw para auditar.
func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (Verification, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return Verification{}, ErrMissingTransaction
	}

	endpoint := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, url.PathEscape(transactionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verification{}, fmt.Errorf("read response: %w", err)
	}

	var v Verification
	if err := json.Unmarshal(body, &v); err != nil {
		raw, _ := json.Marshal(map[string]string{"raw": string(body)})
		return Verification{Raw: string(raw)}, nil
	}
	v.Raw = string(body)
	return v, nil
}
