// Package completion relays prompts to an OpenAI-compatible completion API
// (OpenRouter) and normalizes the replies.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/sashabaranov/go-openai"
)

const (
	chatTitle = "Bolt New Clone"
	codeTitle = "Bolt New Clone - Code Generation"

	chatSystemPrompt = "You are a helpful AI assistant that provides concise and accurate responses."
	codeSystemPrompt = "You are an expert React developer. Generate clean, modern, and functional React code with Tailwind CSS styling. Return your response in valid JSON format as specified in the user's prompt."

	chatTemperature = 0.7
	codeTemperature = 0.3

	// NoResponseFallback is returned when the provider answers without content.
	NoResponseFallback = "No response from AI"
)

type Config struct {
	APIKey  string
	BaseURL string
	// AppURL is sent as the HTTP-Referer attribution header.
	AppURL  string
	Timeout time.Duration
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResult struct {
	Result string `json:"result"`
	Model  string `json:"model"`
	Usage  Usage  `json:"usage"`
}

// CodeResult is a parsed code generation reply. Files holds the "files" key;
// Extra keeps every other top-level key untouched.
type CodeResult struct {
	Files models.FileTree
	Extra map[string]json.RawMessage
	Model string
	Usage Usage
}

type Gateway struct {
	client  *openai.Client
	catalog *catalog.Catalog
	apiKey  string
	timeout time.Duration
	log     *logger.Logger
}

func NewGateway(cfg Config, cat *catalog.Catalog, log *logger.Logger) *Gateway {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = attributionDoer{next: httpClient, referer: cfg.AppURL}

	return &Gateway{
		client:  openai.NewClientWithConfig(clientConfig),
		catalog: cat,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		log:     log.With("component", "completion_gateway"),
	}
}

// GenerateChatReply asks the model for a plain-text reply. An empty modelID
// selects the catalog default.
func (g *Gateway) GenerateChatReply(ctx context.Context, prompt, modelID string) (*ChatResult, error) {
	model, err := g.resolve(models.PurposeChat, modelID)
	if err != nil {
		return nil, err
	}

	resp, err := g.complete(withTitle(ctx, chatTitle), openai.ChatCompletionRequest{
		Model: model.ID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: chatTemperature,
		MaxTokens:   model.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	result := NoResponseFallback
	if content := firstContent(resp); content != "" {
		result = content
	}

	return &ChatResult{
		Result: result,
		Model:  model.ID,
		Usage:  usageOf(resp),
	}, nil
}

// GenerateCodeArtifacts asks the model for a JSON project description and
// parses it. An empty modelID selects the catalog's code default. Content that
// is not a JSON object fails with ErrMalformedResponse.
func (g *Gateway) GenerateCodeArtifacts(ctx context.Context, prompt, modelID string) (*CodeResult, error) {
	model, err := g.resolve(models.PurposeCode, modelID)
	if err != nil {
		return nil, err
	}

	resp, err := g.complete(withTitle(ctx, codeTitle), openai.ChatCompletionRequest{
		Model: model.ID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: codeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: codeTemperature,
		MaxTokens:   model.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(firstContent(resp))
	if content == "" {
		content = "{}"
	}

	files, extra, err := parseArtifacts(content)
	if err != nil {
		g.log.Error("unparseable code generation reply", "model", model.ID, "error", err, "content_length", len(content))
		return nil, &Error{Kind: ErrMalformedResponse, Err: err}
	}

	return &CodeResult{
		Files: files,
		Extra: extra,
		Model: model.ID,
		Usage: usageOf(resp),
	}, nil
}

func (g *Gateway) resolve(purpose models.Purpose, modelID string) (catalog.ModelDescriptor, error) {
	if g.apiKey == "" {
		return catalog.ModelDescriptor{}, &Error{Kind: ErrConfiguration}
	}
	id := g.catalog.ResolveFor(purpose, modelID)
	model, ok := g.catalog.Lookup(id)
	if !ok {
		return catalog.ModelDescriptor{}, &Error{Kind: ErrInvalidModel, Err: errors.New(id)}
	}
	return model, nil
}

// complete makes exactly one upstream call. Failures are logged with whatever
// detail the provider returned and are not retried.
func (g *Gateway) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		status := upstreamStatus(err)
		g.log.Error("completion request failed", "model", req.Model, "status", status, "error", err)
		return openai.ChatCompletionResponse{}, &Error{Kind: ErrUpstream, Status: status, Err: err}
	}
	return resp, nil
}

func upstreamStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func firstContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func usageOf(resp openai.ChatCompletionResponse) Usage {
	return Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
}

func parseArtifacts(content string) (models.FileTree, map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &top); err != nil {
		return nil, nil, err
	}
	if top == nil {
		return nil, nil, errors.New("reply is null")
	}

	files := models.FileTree{}
	if raw, ok := top["files"]; ok {
		if err := json.Unmarshal(raw, &files); err != nil {
			return nil, nil, err
		}
		delete(top, "files")
	}
	return files, top, nil
}
