package sandbox

import "math/rand/v2"

// MaxLevel is the highest level a character can reach.
const MaxLevel = len(levelTable)

// levelTable holds the cumulative XP required to reach each level.
// Index 0 = level 1.
var levelTable = [...]int{
	0,    // Level 1
	100,  // Level 2
	250,  // Level 3
	500,  // Level 4
	850,  // Level 5
	1300, // Level 6
	1850, // Level 7
	2500, // Level 8
	3250, // Level 9
	4100, // Level 10
	5050, // Level 11
}

const (
	baseHP     = 100
	hpPerLevel = 10
)

// Question sources, passed through the client unchanged.
const (
	SourceCurrentTask = "current_task"
	SourceRepetition  = "repetition"
	SourceRandom      = "random"
)

// xpRewards is indexed by difficulty-1.
var xpRewards = map[string][5]int{
	SourceCurrentTask: {20, 25, 30, 40, 50},
	SourceRepetition:  {10, 12, 15, 20, 25},
	SourceRandom:      {15, 18, 22, 28, 35},
}

// hpDamage is indexed by difficulty-1.
var hpDamage = [5]int{5, 10, 15, 20, 25}

var monsters = [5][]string{
	{"Schleim", "Pilzling", "Nebelwicht"},
	{"Waldgeist", "Schattenkatze", "Irrwurm"},
	{"Felsengolem", "Dunkelelf", "Frostwolf"},
	{"Sturmdrache", "Feuerdaemon", "Schattenlord"},
	{"Uralter Wyrm", "Lichkoenig", "Chaosbestie"},
}

// LevelForXP returns the level a character with xp experience has reached.
func LevelForXP(xp int) int {
	for i, req := range levelTable {
		if xp < req {
			return max(1, i)
		}
	}
	return MaxLevel
}

// ExpToNextLevel returns the remaining XP needed to reach the next level.
func ExpToNextLevel(level, xp int) int {
	if level < 1 || level >= MaxLevel {
		return 0
	}
	return max(0, levelTable[level]-xp)
}

// MaxHPForLevel returns the full hit points of a character at level.
func MaxHPForLevel(level int) int {
	return baseHP + (max(1, level)-1)*hpPerLevel
}

// XPReward returns the experience for a correct answer. Unknown sources pay
// like random questions; out of range difficulties pay like difficulty 1.
func XPReward(source string, difficulty int) int {
	table, ok := xpRewards[source]
	if !ok {
		table = xpRewards[SourceRandom]
	}
	if difficulty < 1 || difficulty > len(table) {
		difficulty = 1
	}
	return table[difficulty-1]
}

// Damage returns the hit points lost to a wrong answer.
func Damage(difficulty int) int {
	if difficulty < 1 || difficulty > len(hpDamage) {
		difficulty = 1
	}
	return hpDamage[difficulty-1]
}

// Monster picks a monster name for an area of the given difficulty.
func Monster(r *rand.Rand, difficulty int) string {
	difficulty = min(max(difficulty, 1), len(monsters))
	names := monsters[difficulty-1]
	return names[r.IntN(len(names))]
}

// difficultyRange is the band of question difficulties used in an area.
func difficultyRange(difficulty int) (int, int) {
	return max(1, difficulty-1), min(5, difficulty+1)
}
