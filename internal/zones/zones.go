// Package zones holds the fixed catalogue of thematic zones posts are filed under.
package zones

import (
	"errors"
	"fmt"

	"github.com/schollz/closestmatch"
	"github.com/tahcohcat/questagram/internal/models"
)

var ErrZoneNotFound = errors.New("zone not found")

// Zone is a thematic category. Posting in a zone whose ClassBonus contains
// the author's class earns bonus experience.
type Zone struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Emoji         string           `json:"emoji"`
	Description   string           `json:"description"`
	RequiredLevel int              `json:"required_level"`
	ClassBonus    models.ClassList `json:"class_bonus,omitempty"`
}

// NotFoundError carries the closest known zone id, if any.
type NotFoundError struct {
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("zone %q not found", e.ID)
	}
	return fmt.Sprintf("zone %q not found, did you mean %q?", e.ID, e.Suggestion)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrZoneNotFound
}

var catalogue = []Zone{
	{ID: "artisan_valley", Name: "Artisan's Valley", Emoji: "🎨", Description: "Art, crafts, and creative content", RequiredLevel: 1, ClassBonus: models.ClassList{models.ClassMage}},
	{ID: "arena_trends", Name: "Arena of Trends", Emoji: "🔥", Description: "Trending challenges and viral content", RequiredLevel: 1, ClassBonus: models.ClassList{models.ClassRogue}},
	{ID: "the_library", Name: "The Library", Emoji: "📚", Description: "Educational and insightful content", RequiredLevel: 1, ClassBonus: models.ClassList{models.ClassMage}},
	{ID: "training_grounds", Name: "Training Grounds", Emoji: "⚔️", Description: "Fitness, sports, and physical activities", RequiredLevel: 1, ClassBonus: models.ClassList{models.ClassWarrior}},
	{ID: "sanctuary", Name: "The Sanctuary", Emoji: "✨", Description: "Support, kindness, and community", RequiredLevel: 1, ClassBonus: models.ClassList{models.ClassCleric}},
	{ID: "mystic_realm", Name: "Mystic Realm", Emoji: "🌟", Description: "Advanced magical content", RequiredLevel: 5, ClassBonus: models.ClassList{models.ClassMage}},
	{ID: "champions_hall", Name: "Champions Hall", Emoji: "🏆", Description: "Elite achievements and competitions", RequiredLevel: 10, ClassBonus: models.ClassList{models.ClassWarrior, models.ClassRogue}},
}

var matcher = newMatcher()

func newMatcher() *closestmatch.ClosestMatch {
	ids := make([]string, len(catalogue))
	for i, z := range catalogue {
		ids[i] = z.ID
	}
	return closestmatch.New(ids, []int{2, 3})
}

// All returns every zone in catalogue order.
func All() []Zone {
	out := make([]Zone, len(catalogue))
	copy(out, catalogue)
	return out
}

// Get looks a zone up by id. Unknown ids yield a *NotFoundError.
func Get(id string) (Zone, error) {
	for _, z := range catalogue {
		if z.ID == id {
			return z, nil
		}
	}
	return Zone{}, &NotFoundError{ID: id, Suggestion: Suggest(id)}
}

// Available returns the zones unlocked at level.
func Available(level int) []Zone {
	var out []Zone
	for _, z := range catalogue {
		if z.RequiredLevel <= level {
			out = append(out, z)
		}
	}
	return out
}

// Suggest returns the known zone id closest to id, or "".
func Suggest(id string) string {
	if id == "" {
		return ""
	}
	return matcher.Closest(id)
}
