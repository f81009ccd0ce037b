package chat

import (
	"bytes"
	"strings"

	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/retriever"
)

const (
	conversationInstruction = "Use the following context to answer the user's question."
	selectionInstruction    = "Use the following context to answer the user's question about the selected text."
)

func systemPrompt(instruction string, chunks []retriever.Chunk) string {
	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}

	var sb bytes.Buffer
	sb.WriteString("You are an AI assistant for the Physical AI & Humanoid Robotics textbook.\n")
	sb.WriteString(instruction)
	sb.WriteString("\nIf the context doesn't contain relevant information, say so.\n")
	sb.WriteString("Be accurate, concise, and cite sources when possible.\n\n")
	sb.WriteString("Context: ")
	sb.WriteString(strings.Join(contents, "\n\n"))

	return sb.String()
}

// buildPrompt orders the system message, the most recent historyLimit turns
// and the current user message.
func buildPrompt(instruction string, chunks []retriever.Chunk, history []conversation.Message, historyLimit int, input string) []generator.Message {
	if historyLimit >= 0 && len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]generator.Message, 0, len(history)+2)

	messages = append(messages, generator.Message{Role: generator.RoleSystem, Content: systemPrompt(instruction, chunks)})

	for _, msg := range history {
		messages = append(messages, generator.Message{Role: msg.Role, Content: msg.Content})
	}

	messages = append(messages, generator.Message{Role: generator.RoleUser, Content: input})

	return messages
}
