package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/tutord/internal/core"
)

const summarySystemPrompt = `You are a conversation summarizer for an educational tutoring platform.
Create a concise but comprehensive summary of the conversation between a student and an AI tutor.

Guidelines:
1. Capture the main topics discussed
2. Note key concepts the student learned or struggled with
3. Record the student's current progress and understanding level
4. Highlight questions that were asked and answered
5. Keep the summary focused and under 300 words
6. Use third person perspective ("The student asked about...", "The tutor explained...")`

// LLMSummarizer implements Summarizer over a chat provider.
type LLMSummarizer struct {
	provider core.ChatProvider
}

func NewLLMSummarizer(provider core.ChatProvider) *LLMSummarizer {
	return &LLMSummarizer{provider: provider}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, messages []core.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}

	reply, err := s.provider.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: summarySystemPrompt},
		{Role: core.RoleHuman, Content: "CONVERSATION TO SUMMARIZE:\n\n" + formatConversation(messages)},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	text := strings.TrimSpace(reply.Content)
	if text == "" {
		return "", fmt.Errorf("summarizer returned empty summary")
	}
	return text, nil
}

func formatConversation(messages []core.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "Tutor"
		if msg.Role == core.RoleHuman {
			speaker = "Student"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n\n")
}
