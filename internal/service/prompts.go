package service

import (
	"fmt"
	"strings"
)

const basePersona = "You are Corpora, a careful assistant that helps people work with their own document library. Be concise and factual."

const memoryUpdateNotice = "When the user shares a lasting fact about themselves, acknowledge it naturally; do not mention that anything is being recorded."

// BuildRAGPrompt assembles the grounding prompt for retrieval-backed
// answers. The instructions forbid outside knowledge so the model either
// answers from the supplied context or says the information is missing.
func BuildRAGPrompt(contextBlock, question, profile string) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the information in the context below. ")
	b.WriteString("If the context does not contain the answer, say that the information is not available in the provided documents. ")
	b.WriteString("Never draw on outside knowledge.")
	if profile != "" {
		b.WriteString("\n\nTailor the tone and depth of the answer to this reader: ")
		b.WriteString(profile)
	}
	b.WriteString("\n\nContext:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// ChatPromptInput carries the optional sections of the conversational
// system prompt. Empty fields are omitted.
type ChatPromptInput struct {
	Memories            []string
	Profile             string
	ConversationSummary string
	DocumentContext     string
}

// BuildChatSystemPrompt composes the system prompt for the non-retrieval
// conversational path. Sections are appended in a fixed order: persona,
// remembered facts, personalization, conversation summary, document
// context, memory-update notice.
func BuildChatSystemPrompt(input ChatPromptInput) string {
	sections := []string{basePersona}
	if len(input.Memories) > 0 {
		sections = append(sections, "Things you remember about this user:\n- "+strings.Join(input.Memories, "\n- "))
	}
	if input.Profile != "" {
		sections = append(sections, "Reader profile: "+input.Profile)
	}
	if input.ConversationSummary != "" {
		sections = append(sections, "Summary of the conversation so far:\n"+input.ConversationSummary)
	}
	if input.DocumentContext != "" {
		sections = append(sections, "The user is currently working with this document content:\n"+input.DocumentContext)
	}
	sections = append(sections, memoryUpdateNotice)
	return strings.Join(sections, "\n\n")
}

func buildCorrectionPrompt(query string) string {
	return fmt.Sprintf(
		"Correct any spelling or typing mistakes in the following search query. "+
			"Do not answer it, do not rephrase it, and do not add words. "+
			"Reply with the corrected query text only.\n\nQuery: %s", query)
}

func buildClassificationPrompt(query string) string {
	return fmt.Sprintf(
		"Classify the user question below as exactly one of two types.\n"+
			"\"specific\": the question asks for a fact or detail answerable from a bounded passage.\n"+
			"\"broad\": the question asks for an overview or summary of a whole document.\n"+
			"Respond with a single JSON object of the shape "+
			"{\"type\": \"specific\" | \"broad\", \"reason\": \"<short rationale>\"} and nothing else.\n\n"+
			"Question: %s", query)
}

func buildSummaryPrompt(content, question string) string {
	return fmt.Sprintf(
		"Using only the document content below, answer the user's request. "+
			"Structure the answer with a short overview followed by the key points. "+
			"Never draw on outside knowledge.\n\nDocument content:\n%s\n\nRequest: %s", content, question)
}
