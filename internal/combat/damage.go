package combat

// damageVerbs grade a hit by the share of the player's full health it
// took, so a 25 point blow reads worse at level 1 than at level 10.
var damageVerbs = []struct {
	maxPercent int
	verb       string // "The {monster} {verb} you."
}{
	{0, "misses"},
	{5, "scratches"},
	{10, "hits"},
	{15, "hits hard"},
	{20, "pummels"},
	{30, "mauls"},
	{50, "devastates"},
}

// DamageVerb describes a hit of damage points against a player with
// maxHP full health.
func DamageVerb(damage, maxHP int) string {
	if damage <= 0 {
		return damageVerbs[0].verb
	}
	if maxHP <= 0 {
		maxHP = 1
	}

	pct := damage * 100 / maxHP
	for _, d := range damageVerbs[1:] {
		if pct <= d.maxPercent {
			return d.verb
		}
	}
	return "nearly ends"
}
