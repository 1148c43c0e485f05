package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/intent"
)

var (
	understandToolName    = "understand"
	understandDescription = "Compute the understanding of a user sentence. Returns the detected intents (classifier or QnA) and the extracted entities, and records the turn in the user's current conversation."

	conversationToolName    = "conversation"
	conversationDescription = "Describe the current conversation of a user: its id, creation time, whether it is still valid, and the last understanding computed in it."
)

// UnderstandInput represents the input arguments for the understand tool.
type UnderstandInput struct {
	User     string `json:"user" jsonschema:"the id of the user sending the sentence"`
	Sentence string `json:"sentence" jsonschema:"the sentence to understand"`
}

// UnderstandOutput represents the output of the understand tool.
type UnderstandOutput struct {
	User         string           `json:"user"`
	Conversation string           `json:"conversation"`
	Intents      []*intent.Intent `json:"intents"`
	Entities     []entity.Entity  `json:"entities"`
}

// ConversationInput represents the input arguments for the conversation tool.
type ConversationInput struct {
	User string `json:"user" jsonschema:"the id of the user"`
}

// ConversationOutput represents the output of the conversation tool.
type ConversationOutput struct {
	User              string           `json:"user"`
	Conversation      string           `json:"conversation,omitempty"`
	CreatedAt         *time.Time       `json:"createdAt,omitempty"`
	Valid             bool             `json:"valid"`
	LastIntents       []*intent.Intent `json:"lastIntents,omitempty"`
	LastEntities      []entity.Entity  `json:"lastEntities,omitempty"`
	ConversationCount int              `json:"conversationCount"`
}

// handleUnderstand runs one bot turn.
func (s *Server) handleUnderstand(ctx context.Context, _ *mcp.CallToolRequest, input UnderstandInput) (*mcp.CallToolResult, UnderstandOutput, error) {
	if input.User == "" {
		return toolError("user is required"), UnderstandOutput{}, nil
	}

	s.config.Logger.Debug("MCP understand request", "user_id", input.User)

	resp, err := s.config.Bot.Respond(ctx, bot.UserMessage{UserID: input.User, Sentence: input.Sentence})
	if err != nil {
		s.config.Logger.Error("failed to compute understanding", "user_id", input.User, "error", err)
		return toolError(fmt.Sprintf("Failed to compute understanding: %v", err)), UnderstandOutput{}, nil
	}

	output := UnderstandOutput{
		User:         resp.UserID,
		Conversation: resp.ConversationID,
		Intents:      resp.Result.Intents,
		Entities:     resp.Result.Entities,
	}
	return structured(output)
}

// handleConversation reads the last conversation of a user without
// opening a new one.
func (s *Server) handleConversation(ctx context.Context, _ *mcp.CallToolRequest, input ConversationInput) (*mcp.CallToolResult, ConversationOutput, error) {
	if input.User == "" {
		return toolError("user is required"), ConversationOutput{}, nil
	}

	user, err := s.config.Brain.GetUser(ctx, input.User)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to read user: %v", err)), ConversationOutput{}, nil
	}

	output := ConversationOutput{
		User:              user.UserID,
		ConversationCount: len(user.Conversations),
	}

	last := user.LastConversation()
	if last != nil {
		output.Conversation = last.ID
		output.CreatedAt = &last.CreatedAt
		output.Valid = s.config.Brain.IsLastConversationValid(last)
	}

	if output.Valid {
		result, err := s.config.Bot.LastUnderstanding(ctx, input.User)
		if err != nil {
			s.config.Logger.Warn("failed to read last understanding", "user_id", input.User, "error", err)
		} else if result != nil {
			output.LastIntents = result.Intents
			output.LastEntities = result.Entities
		}
	}

	return structured(output)
}

// structured serializes output as JSON in a TextContent block alongside the
// structured content, for clients that only read text.
func structured[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
