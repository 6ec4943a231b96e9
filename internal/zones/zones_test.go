package zones

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/models"
)

func TestGet(t *testing.T) {
	z, err := Get("training_grounds")
	require.NoError(t, err)
	assert.Equal(t, "Training Grounds", z.Name)
	assert.True(t, z.ClassBonus.Contains(models.ClassWarrior))
}

func TestGetUnknownSuggests(t *testing.T) {
	_, err := Get("training_ground")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZoneNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "training_grounds", nf.Suggestion)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 5},
		{4, 5},
		{5, 6},
		{10, 7},
		{42, 7},
	}
	for _, tt := range tests {
		assert.Len(t, Available(tt.level), tt.want, "level %d", tt.level)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "changed"
	z, err := Get(all[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", z.Name)
}
