package rag

import (
	"fmt"
	"strings"

	"pdf-rag-service/models"
)

// DefaultMaxPromptChars bounds the prompt sent to the language model.
const DefaultMaxPromptChars = 12000

const promptTemplate = `You are a helpful customer-support chatbot.
Answer ONLY using the provided context.
If the answer is not in the context, say you don't know.

Conversation history:
%s

Context documents:
%s

User question:
%s

Answer:`

// BuildPrompt composes the model prompt from retrieved chunks, the
// conversation history and the user's question. Chunks are joined by blank
// lines into a context block; history renders one "Role: content" line per
// message in original order.
func BuildPrompt(retrievedChunks []string, history []models.ChatMessage, question string) string {
	context := strings.Join(retrievedChunks, "\n\n")

	var historyText strings.Builder
	for _, msg := range history {
		historyText.WriteString(capitalizeRole(msg.Role))
		historyText.WriteString(": ")
		historyText.WriteString(msg.Content)
		historyText.WriteString("\n")
	}

	return strings.TrimSpace(fmt.Sprintf(promptTemplate, historyText.String(), context, question))
}

// TrimPrompt caps the prompt length by keeping only the trailing maxChars
// characters, counted as runes so a multibyte character is never split.
// Truncation may cut into the instructions and history but always preserves
// the question and the tail of the context.
func TrimPrompt(prompt string, maxChars int) string {
	if len(prompt) <= maxChars {
		return prompt
	}
	runes := []rune(prompt)
	if len(runes) <= maxChars {
		return prompt
	}
	return string(runes[len(runes)-maxChars:])
}

func capitalizeRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
