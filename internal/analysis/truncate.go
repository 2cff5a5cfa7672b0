package analysis

import (
	"errors"
	"unicode/utf8"

	"github.com/icodes/icds/internal/llm"
)

// charsPerToken is the rough character-to-token ratio used for budgeting.
const charsPerToken = 4

// ErrContextOverflow means the messages before the last one already exceed
// the model's budget, so no amount of trimming can make the request fit.
var ErrContextOverflow = errors.New("messages exceed the model context window")

// EffectiveLimit is the token budget for a model: 95% of its window.
func EffectiveLimit(contextWindow int) int {
	return contextWindow * 95 / 100
}

func estimate(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + charsPerToken - 1) / charsPerToken
}

// EstimateTokens approximates the token count of a message list.
func EstimateTokens(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += estimate(m.Role) + estimate(m.Content)
	}
	return total
}

// Truncate fits messages within EffectiveLimit(contextWindow) by cutting
// runes off the end of the last message. Earlier messages are never
// touched. The input slice is not modified.
func Truncate(messages []llm.Message, contextWindow int) ([]llm.Message, error) {
	out := append([]llm.Message(nil), messages...)
	if len(out) == 0 {
		return out, nil
	}

	limit := EffectiveLimit(contextWindow)
	if EstimateTokens(out) <= limit {
		return out, nil
	}

	last := &out[len(out)-1]
	budget := limit - EstimateTokens(out[:len(out)-1]) - estimate(last.Role)
	if budget < 0 {
		last.Content = ""
		return out, ErrContextOverflow
	}

	keep := budget * charsPerToken
	if utf8.RuneCountInString(last.Content) > keep {
		last.Content = string([]rune(last.Content)[:keep])
	}
	return out, nil
}
