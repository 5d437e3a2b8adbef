package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
)

// Chat answers one stateless chat turn. Session persistence belongs to the
// HTTP layer; this usecase only builds the document context and calls the
// model.
type Chat struct {
	builder   *ContextBuilder
	completer ports.ChatCompleter
}

func NewChat(builder *ContextBuilder, completer ports.ChatCompleter) *Chat {
	return &Chat{builder: builder, completer: completer}
}

func (c *Chat) Chat(ctx context.Context, message string, history []domain.ChatMessage, tags, files []string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("message is empty"))
	}

	parts, err := c.builder.Build(ctx, tags, files)
	if err != nil {
		return "", fmt.Errorf("build chat context: %w", err)
	}
	slog.Debug("chat_context_built", "tags", len(tags), "files", len(files), "parts", len(parts))

	reply, err := c.completer.Complete(ctx, history, message, parts)
	if err != nil {
		return "", err
	}
	return reply, nil
}
