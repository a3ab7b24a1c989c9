// Package generation provides interfaces and implementations for interacting
// with external AI/LLM and speech-to-text services. It abstracts the details
// of provider API integration (OpenAI-compatible endpoints, Gemini, local
// whisper), allowing the application to transcribe, correct, and summarize
// lesson audio without coupling to specific external services.
package generation
