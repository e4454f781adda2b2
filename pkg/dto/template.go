package dto

type TemplateResponse struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Icon          string   `json:"icon"`
	Prompt        string   `json:"prompt"`
	Tags          []string `json:"tags"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime string   `json:"estimatedTime"`
}
