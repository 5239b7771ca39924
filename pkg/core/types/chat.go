package types

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry of the chat log.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Fallback is set on the apology appended when the chat gateway failed.
	Fallback bool `json:"fallback,omitempty"`
}

// UserMessage creates a user chat message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant chat message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

func (m ChatMessage) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}

// ChatRequest is the body of POST /ai/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /ai/chat. Both fields are
// optional; Raw keeps the exact response body.
type ChatResponse struct {
	Response *string `json:"response,omitempty"`
	Message  *string `json:"message,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalChatResponse decodes a chat response and retains the raw body.
func UnmarshalChatResponse(data []byte) (*ChatResponse, error) {
	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// Valid JSON that is not an object still carries a reply.
		if !json.Valid(data) {
			return nil, err
		}
		resp = ChatResponse{}
	}
	resp.Raw = append(json.RawMessage(nil), data...)
	return &resp, nil
}

// ReplyText returns the assistant reply: the response field, then the
// message field, then the raw serialized body.
func (r *ChatResponse) ReplyText() string {
	if r == nil {
		return "null"
	}
	if r.Response != nil && *r.Response != "" {
		return *r.Response
	}
	if r.Message != nil && *r.Message != "" {
		return *r.Message
	}
	if len(r.Raw) > 0 {
		compact, err := compactJSON(r.Raw)
		if err == nil {
			return compact
		}
		return string(r.Raw)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}
