package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// Command inputs are exact matches on the whole (lowercased) input, with or
// without the leading slash. They are handled locally; no adapter is called
// and nothing is appended to memory.

const helpText = `EchoMind assistant commands:

  /help    Show this help message
  /clear   Clear conversation history
  /status  Show system status
  /time    Show current time
  /echo    Echo mode notice

Type naturally to chat. Commands also work without the leading slash.`

var commandNames = []string{"help", "clear", "status", "time", "echo"}

// IsCommand reports whether the input is a recognized command.
func (o *Orchestrator) IsCommand(text string) bool {
	name := normalizeCommand(text)
	for _, c := range commandNames {
		if name == c {
			return true
		}
	}
	return false
}

func normalizeCommand(text string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "/")
}

func (o *Orchestrator) runCommand(text string) string {
	switch normalizeCommand(text) {
	case "help":
		return helpText
	case "clear":
		return o.ClearConversation()
	case "status":
		return o.statusReport()
	case "time":
		return fmt.Sprintf("Current time: %s", time.Now().Format("2006-01-02 15:04:05"))
	case "echo":
		return "Echo mode activated. I'll repeat what you say with some context!"
	default:
		return fmt.Sprintf("Unknown command: %s", text)
	}
}

func (o *Orchestrator) statusReport() string {
	stats := o.Stats()
	speech := "text only"
	switch {
	case stats.SpeechInput && stats.SpeechOutput:
		speech = "voice in/out"
	case stats.SpeechInput:
		speech = "voice in"
	case stats.SpeechOutput:
		speech = "voice out"
	}
	uptime := time.Since(stats.ConversationStart).Round(time.Second)
	return fmt.Sprintf(
		"EchoMind is running (%s). Turns: %d processed, %d/%d in memory. Conversation age: %s.",
		speech, stats.TotalTurns, stats.MemoryTurns, stats.MemoryMaxTurns, uptime)
}
