// ABOUTME: Completion gateway backed by the Gemini generateContent API
// ABOUTME: One request per chat turn, no retries, typed errors on failure
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harperreed/agentcrm/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Generation defaults applied when the agent does not override them.
const (
	DefaultTemperature     = 0.7
	DefaultTopK            = 40
	DefaultTopP            = 0.95
	DefaultMaxOutputTokens = 1024
)

var errEmptyResponse = errors.New("response carried no text")

// Request is one chat turn.
type Request struct {
	Message     string
	Context     string // agent description
	Persona     string // agent system prompt
	History     []Turn
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completer is what chat sessions need from a gateway.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	CheckAvailable(ctx context.Context) bool
	Configured() bool
}

// Options configures the Gemini gateway.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Gemini talks to the generative-language API. A Gemini built without an API key
// is valid and reports itself unconfigured.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGemini(ctx context.Context, opts Options, logger *zap.Logger) (*Gemini, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gemini{model: opts.Model, logger: logger}
	if g.model == "" {
		g.model = config.DefaultGeminiModel
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		logger.Warn("gemini api key missing, chat runs in degraded mode")
		return g, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
	}
	if opts.Timeout > 0 {
		cc.HTTPOptions.Timeout = &opts.Timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// NewGeminiFromConfig builds the gateway from application config.
func NewGeminiFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Gemini, error) {
	return NewGemini(ctx, Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger)
}

func (g *Gemini) Configured() bool {
	return g.client != nil
}

// Complete sends one turn and returns the trimmed reply text.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if !g.Configured() {
		return "", &Error{Kind: KindConfiguration, Err: config.ErrMissingAPIKey}
	}

	model := g.modelFor(req.Model)
	resp, err := g.client.Models.GenerateContent(ctx, model, buildContents(req), generationConfig(req))
	if err != nil {
		gwErr := classify(err)
		g.logger.Warn("gemini request failed",
			zap.String("model", model),
			zap.Stringer("kind", gwErr.Kind),
			zap.Error(err))
		return "", gwErr
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.logger.Warn("gemini returned no text", zap.String("model", model))
		return "", &Error{Kind: KindMalformed, Err: errEmptyResponse}
	}
	return text, nil
}

// CheckAvailable sends a short probe. It never returns an error, only whether
// a live completion is worth attempting.
func (g *Gemini) CheckAvailable(ctx context.Context) bool {
	if !g.Configured() {
		return false
	}
	_, err := g.Complete(ctx, Request{
		Message: "Teste de conexão",
		Context: "Sistema de teste",
		Persona: "Assistente técnico",
	})
	return err == nil
}

// modelFor keeps agent models that Gemini can serve and falls back otherwise.
func (g *Gemini) modelFor(agentModel string) string {
	if strings.HasPrefix(agentModel, "gemini") {
		return agentModel
	}
	return g.model
}

func generationConfig(req Request) *genai.GenerateContentConfig {
	temperature := DefaultTemperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	maxTokens := DefaultMaxOutputTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		TopK:            genai.Ptr(float32(DefaultTopK)),
		TopP:            genai.Ptr(float32(DefaultTopP)),
		MaxOutputTokens: int32(maxTokens),
		SafetySettings:  safetySettings(),
	}
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return out
}
