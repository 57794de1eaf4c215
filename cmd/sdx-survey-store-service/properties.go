package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/api"
)

// propertiesProxy serves /properties.json from an upstream service, passing
// the caller's access token on as a bearer token. With no upstream it serves
// an empty list.
type propertiesProxy struct {
	upstream string
	client   *http.Client
	logger   *zap.Logger
}

func (p *propertiesProxy) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if p == nil || p.upstream == "" {
		api.WriteJSON(rw, http.StatusOK, []byte("[]"))
		return
	}

	body, err := p.fetch(r)
	if err != nil {
		p.logger.Error("Failed to fetch properties", zap.String("upstream", p.upstream), zap.Error(err))
		api.WriteProblemResponse(api.Problem{
			Title:  "Failed to fetch properties",
			Status: http.StatusBadGateway,
		}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, body)
}

func (p *propertiesProxy) fetch(r *http.Request) ([]byte, error) {
	target, err := url.Parse(p.upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid properties url: %w", err)
	}
	if survey := r.URL.Query().Get("survey"); survey != "" {
		q := target.Query()
		q.Set("survey", survey)
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	if token := requestToken(r); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}
	req.Header.Set("Accept", "application/json")

	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response from properties service: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var props []json.RawMessage
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, fmt.Errorf("properties service returned %d bytes that are not a JSON array: %w", len(body), err)
	}
	return body, nil
}
