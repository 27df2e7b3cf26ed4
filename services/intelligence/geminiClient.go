// File: services/intelligence/geminiClient.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is the production Oracle backed by Gemini structured output.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGeminiClient connects to Gemini with an API key.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName, timeout: timeout, logger: logger}, nil
}

// Close releases the underlying client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete runs one JSON-mode generation and decodes the answer into out.
func (g *GeminiClient) Complete(ctx context.Context, req Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// A model handle carries generation settings, so each call gets its own.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = toGenaiSchema(req.Schema)
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", req.Name, ErrTimeout)
		}
		return fmt.Errorf("%s: gemini generate error: %w", req.Name, err)
	}
	g.logger.Debug("oracle call finished",
		zap.String("call", req.Name),
		zap.Duration("took", time.Since(start)))

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return fmt.Errorf("%s: %w", req.Name, ErrNullResult)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	if err := DecodeJSON(sb.String(), out); err != nil {
		return fmt.Errorf("%s: %w", req.Name, err)
	}
	return nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Nullable:    s.Nullable,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Enum) > 0 {
		out.Format = "enum"
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenaiSchema(v)
		}
	}
	return out
}
