package openai_client

const (
	// Base URL
	BaseURL = "https://api.openai.com"

	// API Endpoints
	ChatCompletionsEndpoint = "/v1/chat/completions"

	// Models
	DefaultModel = "gpt-4o-mini"

	// Headers
	AuthorizationHeader = "Authorization"
	ContentTypeHeader   = "Content-Type"
	ContentTypeJSON     = "application/json"
)
