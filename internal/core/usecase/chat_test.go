package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

func TestChatAttachesResolvedDocuments(t *testing.T) {
	storage := newFakeStorage()
	storage.files["doc.pdf"] = []byte("pdf-data")
	tags := newFakeTags()
	tags.resolveFunc = func([]string, domain.TagMatchMode) ([]string, error) {
		return []string{"doc.pdf"}, nil
	}
	completer := &fakeChatter{reply: "based on the document, yes"}

	chat := NewChat(NewContextBuilder(storage, tags), completer)
	history := []domain.ChatMessage{{Role: domain.RoleUser, Content: "earlier"}}

	reply, err := chat.Chat(context.Background(), "is it approved?", history, []string{"finance"}, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "based on the document, yes" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if completer.lastMessage != "is it approved?" {
		t.Fatalf("unexpected message %q", completer.lastMessage)
	}
	if len(completer.lastHistory) != 1 || completer.lastHistory[0].Content != "earlier" {
		t.Fatalf("history not forwarded")
	}
	if len(completer.lastParts) != 1 || string(completer.lastParts[0].Data) != "pdf-data" {
		t.Fatalf("document context not attached")
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	chat := NewChat(NewContextBuilder(newFakeStorage(), newFakeTags()), &fakeChatter{})
	_, err := chat.Chat(context.Background(), "   ", nil, nil, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestChatWithoutDocumentsStillAnswers(t *testing.T) {
	completer := &fakeChatter{reply: "hello"}
	chat := NewChat(NewContextBuilder(newFakeStorage(), newFakeTags()), completer)

	reply, err := chat.Chat(context.Background(), "hi", nil, nil, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "hello" || len(completer.lastParts) != 0 {
		t.Fatalf("expected plain reply without parts, got %q with %d parts", reply, len(completer.lastParts))
	}
}

func TestChatPropagatesCompleterError(t *testing.T) {
	completer := &fakeChatter{err: domain.WrapError(domain.ErrTemporary, "chat", errors.New("model overloaded"))}
	chat := NewChat(NewContextBuilder(newFakeStorage(), newFakeTags()), completer)

	_, err := chat.Chat(context.Background(), "hi", nil, nil, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
