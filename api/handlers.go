package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/nlu"
	"github.com/papercomputeco/parley/pkg/storage"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserSummary describes a stored user.
type UserSummary struct {
	UserID            string    `json:"userId"`
	CreatedAt         time.Time `json:"createdAt"`
	ConversationCount int       `json:"conversationCount"`
}

// ConversationResponse describes the last conversation of a user.
type ConversationResponse struct {
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"createdAt"`
	Valid     bool                       `json:"valid"`
	Values    map[string]json.RawMessage `json:"values"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleUnderstand computes the understanding of one user message.
func (s *Server) handleUnderstand(c *fiber.Ctx) error {
	var msg bot.UserMessage
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := s.validator.Struct(msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user is required"})
	}

	resp, err := s.bot.Respond(c.UserContext(), msg)
	if err != nil {
		s.logger.Error("understand failed", "user_id", msg.UserID, "error", err)
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(resp)
}

// statusFor maps understanding errors onto HTTP statuses.
func statusFor(err error) int {
	var authErr *nlu.AuthenticationError
	if errors.As(err, &authErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// handleListUsers returns every stored user, oldest first.
func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.brain.GetAllUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list users"})
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{
			UserID:            u.UserID,
			CreatedAt:         u.CreatedAt,
			ConversationCount: len(u.Conversations),
		})
	}
	return c.JSON(summaries)
}

// handleGetUser returns a single user with its conversations.
func (s *Server) handleGetUser(c *fiber.Ctx) error {
	user, err := s.brain.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.lookupError(c, err)
	}
	return c.JSON(user)
}

// handleGetConversation returns the last conversation of a user and whether
// it is still valid.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	conversation, err := s.brain.GetLastConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.lookupError(c, err)
	}
	if conversation == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no conversation"})
	}

	return c.JSON(ConversationResponse{
		ID:        conversation.ID,
		CreatedAt: conversation.CreatedAt,
		Valid:     s.brain.IsLastConversationValid(conversation),
		Values:    conversation.Values,
	})
}

func (s *Server) lookupError(c *fiber.Ctx, err error) error {
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: notFound.Error()})
	}
	s.logger.Error("brain lookup failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read brain"})
}
