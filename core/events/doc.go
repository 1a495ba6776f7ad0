// Package events defines the typed events flowing through the conversation
// pipeline: user input activity and transcripts, turn-taking decisions,
// assistant response and speech progress, and tool execution milestones.
//
// Events are immutable value types. Producers construct them through the
// New* constructors so every event carries its kind and creation timestamp.
package events
