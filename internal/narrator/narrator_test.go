package narrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/models"
)

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Generate(_ context.Context, _, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeLLM) IsModelAvailable(context.Context) error { return nil }

var quest = models.QuestDefinition{
	ID:           "weekly_mage",
	Title:        "Scholar's Pursuit",
	Description:  "Share knowledge and creativity",
	Type:         models.QuestWeekly,
	Difficulty:   models.DifficultyMedium,
	Requirements: models.StringList{"Post 3 educational/art content"},
	ClassBonus:   models.ClassList{models.ClassMage},
}

func TestNarrate(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"plain json", `{"description":"Unveil the arcane to the realm."}`, nil, "Unveil the arcane to the realm."},
		{"embedded json", "Sure! Here you go:\n{\"description\": \"Scribe your wisdom.\"}\nEnjoy", nil, "Scribe your wisdom."},
		{"model error", "", errors.New("connection refused"), quest.Description},
		{"not json", "I cannot help with that", nil, quest.Description},
		{"empty description", `{"description":"  "}`, nil, quest.Description},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(&fakeLLM{reply: tt.reply, err: tt.err}, 0)
			got, err := n.Narrate(context.Background(), quest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNarrateTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", maxDescription*2)
	n := New(&fakeLLM{reply: `{"description":"` + long + `"}`}, 0)

	got, err := n.Narrate(context.Background(), quest)
	require.NoError(t, err)
	assert.Len(t, []rune(got), maxDescription)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestPromptMentionsQuestDetails(t *testing.T) {
	fake := &fakeLLM{reply: `{"description":"x"}`}
	_, err := New(fake, 0).Narrate(context.Background(), quest)
	require.NoError(t, err)

	assert.Contains(t, fake.lastPrompt, "Scholar's Pursuit")
	assert.Contains(t, fake.lastPrompt, "Post 3 educational/art content")
	assert.Contains(t, fake.lastPrompt, "Favoured classes: mage")
}
