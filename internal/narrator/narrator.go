// Package narrator asks a language model for flavour text on issued quests.
package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tahcohcat/questagram/internal/llm"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
)

const maxDescription = 280

const systemPrompt = `You are the quest giver of Questagram, a fantasy-themed social app where
adventurers level up by sharing posts. Rewrite quest descriptions in one or two
vivid sentences of high-fantasy voice. Keep the real-world task recognisable.
Reply only with JSON: {"description": "..."}`

var errNoDescription = errors.New("reply carried no description")

type reply struct {
	Description string `json:"description"`
}

// Narrator rewrites quest descriptions. On any model failure it returns the
// definition's own description.
type Narrator struct {
	llm     llm.LLM
	timeout time.Duration
	log     *logger.Log
}

func New(model llm.LLM, timeout time.Duration) *Narrator {
	return &Narrator{llm: model, timeout: timeout, log: logger.Named("narrator")}
}

func (n *Narrator) Narrate(ctx context.Context, def models.QuestDefinition) (string, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	raw, err := n.llm.Generate(ctx, systemPrompt, prompt(def))
	if err != nil {
		n.log.WithError(err).Warn(fmt.Sprintf("Falling back to static text for %s", def.ID))
		return def.Description, nil
	}

	text, err := parseReply(raw)
	if err != nil {
		n.log.WithError(err).Warn(fmt.Sprintf("Unusable narration for %s", def.ID))
		return def.Description, nil
	}
	return text, nil
}

func prompt(def models.QuestDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quest: %s\n", def.Title)
	fmt.Fprintf(&b, "Description: %s\n", def.Description)
	fmt.Fprintf(&b, "Difficulty: %s (%s quest)\n", def.Difficulty, def.Type)
	if len(def.Requirements) > 0 {
		fmt.Fprintf(&b, "Requirements: %s\n", strings.Join(def.Requirements, "; "))
	}
	if len(def.ClassBonus) > 0 {
		classes := make([]string, len(def.ClassBonus))
		for i, c := range def.ClassBonus {
			classes[i] = string(c)
		}
		fmt.Fprintf(&b, "Favoured classes: %s\n", strings.Join(classes, ", "))
	}
	return b.String()
}

// parseReply accepts a bare JSON object or one embedded in surrounding text.
func parseReply(raw string) (string, error) {
	var r reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", fmt.Errorf("no JSON object in reply: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil {
			return "", fmt.Errorf("invalid JSON in reply: %w", err)
		}
	}

	text := strings.TrimSpace(r.Description)
	if text == "" {
		return "", errNoDescription
	}
	if runes := []rune(text); len(runes) > maxDescription {
		text = strings.TrimSpace(string(runes[:maxDescription-1])) + "…"
	}
	return text, nil
}
