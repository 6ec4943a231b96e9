// Package progression resolves experience gains, class bonuses and level-ups.
// Everything here is pure; callers persist the results.
package progression

import (
	"errors"
	"fmt"
	"math"

	"github.com/tahcohcat/questagram/internal/models"
)

// ErrInvalidProgress is returned for records that can never occur, such as a
// level below one or negative balances.
var ErrInvalidProgress = errors.New("invalid progress")

// Rules holds the tunable constants of the leveling curve.
type Rules struct {
	LevelStep       int     `mapstructure:"level_step"`       // xp per level, threshold = level * step
	BonusMultiplier float64 `mapstructure:"bonus_multiplier"` // applied when the class is in the bonus list
	LevelUpGold     int     `mapstructure:"level_up_gold"`
	LevelUpGems     int     `mapstructure:"level_up_gems"`
	PostXP          int     `mapstructure:"post_xp"`
	TrainXP         int     `mapstructure:"train_xp"`
}

// DefaultRules are the stock Questagram constants.
var DefaultRules = Rules{
	LevelStep:       100,
	BonusMultiplier: 1.5,
	LevelUpGold:     50,
	LevelUpGems:     5,
	PostXP:          25,
	TrainXP:         25,
}

// GrantedReward applies the class bonus to a base amount using DefaultRules.
func GrantedReward(base int, class models.Class, bonus models.ClassList) int {
	return DefaultRules.GrantedReward(base, class, bonus)
}

// TotalXP returns lifetime experience for a level and in-level xp using DefaultRules.
func TotalXP(level, xp int) int {
	return DefaultRules.TotalXP(level, xp)
}

// Apply grants reward to p using DefaultRules.
func Apply(p models.LeaderboardEntry, reward models.Reward) (models.LeaderboardEntry, *models.LevelUp) {
	return DefaultRules.Apply(p, reward)
}

// GrantedReward returns floor(base * multiplier) when class is in bonus,
// base otherwise.
func (r Rules) GrantedReward(base int, class models.Class, bonus models.ClassList) int {
	if !bonus.Contains(class) {
		return base
	}
	return int(math.Floor(float64(base) * r.BonusMultiplier))
}

// BonusReward applies the class bonus to the xp and gold of a reward. Gems
// are never multiplied.
func (r Rules) BonusReward(base models.Reward, class models.Class, bonus models.ClassList) models.Reward {
	return models.Reward{
		XP:   r.GrantedReward(base.XP, class, bonus),
		Gold: r.GrantedReward(base.Gold, class, bonus),
		Gems: base.Gems,
	}
}

func (r Rules) TotalXP(level, xp int) int {
	return (level-1)*r.LevelStep + xp
}

// Threshold is the in-level xp needed to leave level.
func (r Rules) Threshold(level int) int {
	return level * r.LevelStep
}

// Apply adds reward to p. When the new in-level xp meets the current
// level's threshold the level goes up by exactly one, xp keeps the
// remainder and the level-up bonus is paid. TotalXP is recomputed.
func (r Rules) Apply(p models.LeaderboardEntry, reward models.Reward) (models.LeaderboardEntry, *models.LevelUp) {
	next := p
	next.Gold += reward.Gold
	next.Gems += reward.Gems

	cumulative := p.XP + reward.XP
	threshold := r.Threshold(p.Level)

	var up *models.LevelUp
	if cumulative >= threshold {
		next.Level = p.Level + 1
		next.XP = cumulative - threshold
		next.Gold += r.LevelUpGold
		next.Gems += r.LevelUpGems
		up = &models.LevelUp{
			From:      p.Level,
			To:        next.Level,
			BonusGold: r.LevelUpGold,
			BonusGems: r.LevelUpGems,
		}
	} else {
		next.XP = cumulative
	}

	next.TotalXP = r.TotalXP(next.Level, next.XP)
	return next, up
}

// Validate rejects progression records and rewards outside the domain of Apply.
func Validate(p models.LeaderboardEntry, reward models.Reward) error {
	switch {
	case p.Level < 1:
		return fmt.Errorf("%w: level %d", ErrInvalidProgress, p.Level)
	case p.XP < 0:
		return fmt.Errorf("%w: xp %d", ErrInvalidProgress, p.XP)
	case p.Gold < 0 || p.Gems < 0:
		return fmt.Errorf("%w: negative balance", ErrInvalidProgress)
	case reward.XP < 0 || reward.Gold < 0 || reward.Gems < 0:
		return fmt.Errorf("%w: negative reward", ErrInvalidProgress)
	}
	return nil
}
