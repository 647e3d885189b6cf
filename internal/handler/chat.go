package handler

import "net/http"

// ChatPage is the template data for the chat page.
type ChatPage struct {
	BasePage
	SystemPrompt string
}

// ChatHandler serves the chat page. The browser streams replies from
// /api/chat directly.
type ChatHandler struct {
	systemPrompt string
}

// NewChatHandler creates a ChatHandler that pre-fills the system instruction.
func NewChatHandler(systemPrompt string) *ChatHandler {
	return &ChatHandler{systemPrompt: systemPrompt}
}

// Show handles GET /chat.
func (h *ChatHandler) Show(w http.ResponseWriter, r *http.Request) {
	render(w, "chat.html", ChatPage{
		BasePage:     basePage(r, "chat"),
		SystemPrompt: h.systemPrompt,
	})
}
