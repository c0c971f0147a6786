// Package llm talks to the Gemini API to summarise email, draft replies and
// pull meeting details out of free text.
//
// Prompting and response parsing live in Assistant and only depend on the
// Generator interface. GeminiGenerator is the production Generator.
package llm
