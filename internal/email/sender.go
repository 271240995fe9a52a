package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payload is the JSON body accepted by the transactional email API.
type Payload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type Sender interface {
	Send(ctx context.Context, payload *Payload) error
}

type httpSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPSender posts messages to apiURL with a bearer key. An empty payload From uses from.
func NewHTTPSender(apiURL, apiKey, from string, client *http.Client) Sender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpSender{apiURL: apiURL, apiKey: apiKey, from: from, client: client}
}

func (s *httpSender) Send(ctx context.Context, payload *Payload) error {
	if payload.From == "" {
		payload.From = s.from
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
