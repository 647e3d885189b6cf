package api

import "github.com/joestump/joe-writer/internal/catalog"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Generation ---

// GenerateRequest is the request body for POST /api/generate.
type GenerateRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Tone     string `json:"tone"`
}

// GenerateResponse is the response body for POST /api/generate.
type GenerateResponse struct {
	Content string `json:"content"`
}

// --- Chat ---

// ChatMessage is one conversation entry.
type ChatMessage struct {
	Role    string `json:"role" enums:"user,assistant,system"`
	Content string `json:"content"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	SystemMsg string        `json:"systemMsg,omitempty"`
}

// ChatChunk is the payload of one event on the chat stream. Exactly one
// field is set.
type ChatChunk struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// --- Templates ---

// TemplateListResponse is the response body for GET /api/templates.
type TemplateListResponse struct {
	Templates []catalog.TemplateDoc `json:"templates"`
}
