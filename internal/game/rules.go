package game

// Effect tags what a fired rule means for the table.
type Effect int

const (
	EffectThreemanDrinks Effect = iota
	EffectDoubleOnes
	EffectDoubleTwos
	EffectDoubleThrees
	EffectDoubleFours
	EffectDoubleFives
	EffectDoubleSixes
	EffectEveryoneDrinks
	EffectLeftDrinks
	EffectRightDrinks
)

var effectNames = map[Effect]string{
	EffectThreemanDrinks: "threeman_drinks",
	EffectDoubleOnes:     "double_ones",
	EffectDoubleTwos:     "double_twos",
	EffectDoubleThrees:   "double_threes",
	EffectDoubleFours:    "double_fours",
	EffectDoubleFives:    "double_fives",
	EffectDoubleSixes:    "double_sixes",
	EffectEveryoneDrinks: "everyone_drinks",
	EffectLeftDrinks:     "total_seven",
	EffectRightDrinks:    "total_eleven",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return "unknown"
}

// Rule pairs a roll predicate with the effect it fires.
type Rule struct {
	Effect  Effect
	Applies func(Roll) bool
}

// Name returns the rule's table name.
func (r Rule) Name() string {
	return r.Effect.String()
}

func doubles(v int) func(Roll) bool {
	return func(r Roll) bool { return r.Is(v, v) }
}

// DefaultRules is the Threeman rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Effect: EffectThreemanDrinks, Applies: func(r Roll) bool { return r.Shows(3) }},
		{Effect: EffectDoubleOnes, Applies: doubles(1)},
		{Effect: EffectDoubleTwos, Applies: doubles(2)},
		{Effect: EffectDoubleThrees, Applies: doubles(3)},
		{Effect: EffectDoubleFours, Applies: doubles(4)},
		{Effect: EffectDoubleFives, Applies: doubles(5)},
		{Effect: EffectDoubleSixes, Applies: doubles(6)},
		{Effect: EffectEveryoneDrinks, Applies: func(r Roll) bool {
			return r.Is(4, 1) || r.Is(1, 4) || r.Is(4, 6) || r.Is(6, 4)
		}},
		{Effect: EffectLeftDrinks, Applies: func(r Roll) bool { return r.Total() == 7 }},
		{Effect: EffectRightDrinks, Applies: func(r Roll) bool { return r.Total() == 11 }},
	}
}

// Evaluate returns the effects of every rule that holds for roll, in table
// order.
func Evaluate(rules []Rule, roll Roll) []Effect {
	var fired []Effect
	for _, rule := range rules {
		if rule.Applies(roll) {
			fired = append(fired, rule.Effect)
		}
	}
	return fired
}

// ThreemanDrinks counts the drinks owed by the Threeman for roll: one per die
// showing 3. A total of 3 alone still fires the rule but costs nothing.
func ThreemanDrinks(roll Roll) int {
	n := 0
	if roll.Die1 == 3 {
		n++
	}
	if roll.Die2 == 3 {
		n++
	}
	return n
}

var doublesGiveOut = map[Effect]string{
	EffectDoubleOnes:   "rolled double ones! Tell anyone to finish their drink.",
	EffectDoubleTwos:   "rolled double twos! Give out 8 drinks.",
	EffectDoubleThrees: "rolled double threes! Give out 6 drinks.",
	EffectDoubleFours:  "rolled double fours! Give out 8 drinks.",
	EffectDoubleFives:  "rolled double fives! Give out 10 drinks.",
	EffectDoubleSixes:  "rolled double sixes! Give out 12 drinks.",
}
