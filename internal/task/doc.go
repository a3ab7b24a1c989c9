// Package task manages background job records and their execution.
// Tasks are created over the API, persisted with a pending status, and
// picked up by a polling dispatcher that claims the oldest pending
// task, runs the handler matching its type, and records the outcome.
// Long-running operations like transcription and LLM calls therefore
// never block HTTP request handling and survive application restarts.
package task
