package sandbox

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestLevelForXP(t *testing.T) {
	tests := map[string]struct {
		xp       int
		expLevel int
		expNext  int
	}{
		"fresh":            {xp: 0, expLevel: 1, expNext: 100},
		"just below two":   {xp: 99, expLevel: 1, expNext: 1},
		"exactly two":      {xp: 100, expLevel: 2, expNext: 150},
		"mid table":        {xp: 900, expLevel: 5, expNext: 400},
		"max level":        {xp: 5050, expLevel: 11, expNext: 0},
		"beyond max level": {xp: 99999, expLevel: 11, expNext: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			level := LevelForXP(tt.xp)
			testutil.AssertEqual(t, "level", level, tt.expLevel)
			testutil.AssertEqual(t, "next", ExpToNextLevel(level, tt.xp), tt.expNext)
		})
	}
}

func TestMaxHPForLevel(t *testing.T) {
	testutil.AssertEqual(t, "level 1", MaxHPForLevel(1), 100)
	testutil.AssertEqual(t, "level 4", MaxHPForLevel(4), 130)
	testutil.AssertEqual(t, "level 0", MaxHPForLevel(0), 100)
}

func TestXPReward(t *testing.T) {
	tests := map[string]struct {
		source     string
		difficulty int
		exp        int
	}{
		"current task":       {source: SourceCurrentTask, difficulty: 3, exp: 30},
		"repetition":         {source: SourceRepetition, difficulty: 5, exp: 25},
		"random":             {source: SourceRandom, difficulty: 2, exp: 18},
		"unknown source":     {source: "bonus", difficulty: 4, exp: 28},
		"unknown difficulty": {source: SourceCurrentTask, difficulty: 9, exp: 20},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "xp", XPReward(tt.source, tt.difficulty), tt.exp)
		})
	}
}

func TestDamage(t *testing.T) {
	testutil.AssertEqual(t, "difficulty 1", Damage(1), 5)
	testutil.AssertEqual(t, "difficulty 5", Damage(5), 25)
	testutil.AssertEqual(t, "out of range", Damage(0), 5)
}

func TestMonster(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for difficulty := 0; difficulty <= 6; difficulty++ {
		name := Monster(r, difficulty)
		tier := min(max(difficulty, 1), 5)
		testutil.AssertEqual(t, name, slices.Contains(monsters[tier-1], name), true)
	}
}

func TestDifficultyRange(t *testing.T) {
	lo, hi := difficultyRange(1)
	testutil.AssertEqual(t, "low lo", lo, 1)
	testutil.AssertEqual(t, "low hi", hi, 2)

	lo, hi = difficultyRange(5)
	testutil.AssertEqual(t, "high lo", lo, 4)
	testutil.AssertEqual(t, "high hi", hi, 5)
}
