package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned by Generate when no credential was configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Options configures a Gemini generator.
type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini generates text with the Google genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a generator. Without an API key no client is built and
// every Generate call fails with ErrMissingAPIKey.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	g := &Gemini{model: opts.Model}
	if opts.APIKey == "" {
		return g, nil
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Model returns the model identifier sent with every request.
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", wrapError(err)
	}
	return resp.Text(), nil
}
