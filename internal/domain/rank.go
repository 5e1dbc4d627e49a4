package domain

// RankTitle is one of six ordered discipline tiers.
type RankTitle string

const (
	RankGhafil   RankTitle = "Ghāfil"   // tier 1: heedless, default state
	RankMuntabih RankTitle = "Muntabih" // tier 2: aware, first step taken
	RankMultazim RankTitle = "Multazim" // tier 3: committed
	RankMuwazib  RankTitle = "Muwāẓib"  // tier 4: consistent
	RankMuhasib  RankTitle = "Muhāsib"  // tier 5: self-accountable
	RankMuttazin RankTitle = "Muttazin" // tier 6: balanced, highest state
)

// rankOrder maps titles to their tier number for ordering comparisons.
var rankOrder = map[RankTitle]int{
	RankGhafil:   1,
	RankMuntabih: 2,
	RankMultazim: 3,
	RankMuwazib:  4,
	RankMuhasib:  5,
	RankMuttazin: 6,
}

// Tier returns the 1-based tier number of a rank.
func (r RankTitle) Tier() int {
	return rankOrder[r]
}

// RankInfo describes a tier and what unlocks the next one.
type RankInfo struct {
	Definition      string    `json:"definition"`
	NextRank        RankTitle `json:"next_rank,omitempty"`
	NextRequirement string    `json:"next_requirement,omitempty"`
}

// RankCatalog is the user-facing description of every tier.
var RankCatalog = map[RankTitle]RankInfo{
	RankGhafil: {
		Definition:      "Heedless, unaware. Default state.",
		NextRank:        RankMuntabih,
		NextRequirement: "Complete your first day to become aware.",
	},
	RankMuntabih: {
		Definition:      "Aware, alert. First step taken.",
		NextRank:        RankMultazim,
		NextRequirement: "Complete 1 full cycle (7 days) to show commitment.",
	},
	RankMultazim: {
		Definition:      "Committed, bound by obligation.",
		NextRank:        RankMuwazib,
		NextRequirement: "Complete 3 cycles to prove consistency.",
	},
	RankMuwazib: {
		Definition:      "Consistent, regular. Patterns established.",
		NextRank:        RankMuhasib,
		NextRequirement: "Complete 7 cycles and recover after at least one missed day.",
	},
	RankMuhasib: {
		Definition:      "One who holds himself accountable.",
		NextRank:        RankMuttazin,
		NextRequirement: "Reach 30+ completed days for balance.",
	},
	RankMuttazin: {
		Definition:      "Balanced, measured. Highest state.",
		NextRequirement: "Maintain consistency. This is the pinnacle.",
	},
}
