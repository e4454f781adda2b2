package dto

import (
	"encoding/json"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/models"
)

type CompletionRequest struct {
	Prompt  string `json:"prompt"`
	ModelID string `json:"modelId,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ModelsResponse struct {
	Models       []catalog.ModelDescriptor `json:"models"`
	DefaultModel string                    `json:"defaultModel,omitempty"`
}

type ChatCompletionResponse struct {
	Result string `json:"result"`
	Model  string `json:"model"`
	Usage  Usage  `json:"usage"`
}

// CodeArtifactsResponse is the parsed code generation reply. Every key the
// model returned is passed through next to files, model and usage.
type CodeArtifactsResponse struct {
	Extra      map[string]json.RawMessage
	Files      models.FileTree
	ActiveView string
	Model      string
	Usage      Usage
}

func (r CodeArtifactsResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+4)
	for key, value := range r.Extra {
		out[key] = value
	}

	files := r.Files
	if files == nil {
		files = models.FileTree{}
	}
	out["files"] = files
	out["model"] = r.Model
	out["usage"] = r.Usage
	if r.ActiveView != "" {
		out["activeView"] = r.ActiveView
	}
	return json.Marshal(out)
}
