package query

import (
	"fmt"
	"sort"
	"strings"
)

// Tier identifies one of the fixed series-state query shapes.
type Tier int

const (
	TierBase Tier = iota
	TierV310
	TierV323
	TierV330
	TierV335
	TierV343
)

// FieldSet lists the selections a tier requests at each nesting level.
type FieldSet struct {
	// Game holds selections on each game.
	Game []string
	// Team holds selections on each team within a game.
	Team []string
	// Player holds selections on each player within a game team.
	Player []string
	// PlayerLol holds selections inside "... on GamePlayerStateLol".
	PlayerLol []string
}

type tierSpec struct {
	tier  Tier
	label string
	min   Version
	adds  FieldSet
}

// tierSpecs is ordered ascending; each entry adds to everything below it.
var tierSpecs = []tierSpec{
	{
		tier:  TierBase,
		label: "base",
		adds: FieldSet{
			Game: []string{
				"id", "sequenceNumber", "started", "finished", "paused",
				"clock { currentSeconds ticking }",
				"map { name }",
			},
			Team: []string{
				"id", "name", "side", "won", "score", "kills", "deaths", "structuresDestroyed",
			},
			Player: []string{
				"id", "name", "participationStatus",
				"character { id name }",
				"kills", "deaths", "killAssistsGiven",
			},
		},
	},
	{
		tier:  TierV310,
		label: "v3.10",
		min:   Version{Major: 3, Minor: 10},
		adds: FieldSet{
			Team:   []string{"firstKill"},
			Player: []string{"firstKill"},
		},
	},
	{
		tier:  TierV323,
		label: "v3.23",
		min:   Version{Major: 3, Minor: 23},
		adds: FieldSet{
			Game:      []string{"titleVersion { name }"},
			PlayerLol: []string{"damageDealt", "experiencePoints"},
		},
	},
	{
		tier:  TierV330,
		label: "v3.30",
		min:   Version{Major: 3, Minor: 30},
		adds: FieldSet{
			PlayerLol: []string{"visionScore", "kdaRatio"},
		},
	},
	{
		tier:  TierV335,
		label: "v3.35",
		min:   Version{Major: 3, Minor: 35},
		adds: FieldSet{
			PlayerLol: []string{"killParticipation"},
		},
	},
	{
		tier:  TierV343,
		label: "v3.43",
		min:   Version{Major: 3, Minor: 43},
	},
}

// Tiers returns every tier in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tierSpecs))
	for i, s := range tierSpecs {
		out[i] = s.tier
	}
	return out
}

// TierFor returns the highest tier whose threshold v meets or exceeds.
func TierFor(v Version) Tier {
	for i := len(tierSpecs) - 1; i > 0; i-- {
		if v.AtLeast(tierSpecs[i].min) {
			return tierSpecs[i].tier
		}
	}
	return TierBase
}

// String returns the tier label, e.g. "v3.30".
func (t Tier) String() string {
	if t < TierBase || int(t) >= len(tierSpecs) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierSpecs[t].label
}

// Fields returns the accumulated field set requested by t.
func (t Tier) Fields() FieldSet {
	var fs FieldSet
	for _, s := range tierSpecs[:t+1] {
		fs.Game = append(fs.Game, s.adds.Game...)
		fs.Team = append(fs.Team, s.adds.Team...)
		fs.Player = append(fs.Player, s.adds.Player...)
		fs.PlayerLol = append(fs.PlayerLol, s.adds.PlayerLol...)
	}
	return fs
}

// Paths flattens the field set into sorted dotted paths such as
// "games.teams.players.kdaRatio". Used to compare tiers.
func (fs FieldSet) Paths() []string {
	var out []string
	add := func(prefix string, fields []string) {
		for _, f := range fields {
			out = append(out, prefix+f)
		}
	}
	add("games.", fs.Game)
	add("games.teams.", fs.Team)
	add("games.teams.players.", fs.Player)
	add("games.teams.players.", fs.PlayerLol)
	sort.Strings(out)
	return out
}

// Has reports whether the field set requests the given path.
func (fs FieldSet) Has(path string) bool {
	for _, p := range fs.Paths() {
		if p == path {
			return true
		}
	}
	return false
}

// Render produces the GraphQL document for the field set.
func (fs FieldSet) Render() string {
	var b strings.Builder
	b.WriteString("query SeriesState($seriesId: ID!) {\n")
	b.WriteString("  seriesState(id: $seriesId) {\n")
	b.WriteString("    id version\n")
	b.WriteString("    title { nameShortened }\n")
	b.WriteString("    format started finished startedAt\n")
	b.WriteString("    teams { id name won score }\n")
	b.WriteString("    games {\n")
	writeLines(&b, "      ", fs.Game)
	b.WriteString("      draftActions {\n")
	b.WriteString("        id sequenceNumber type\n")
	b.WriteString("        drafter { id type }\n")
	b.WriteString("        draftable { id type name }\n")
	b.WriteString("      }\n")
	b.WriteString("      teams {\n")
	writeLines(&b, "        ", fs.Team)
	b.WriteString("        objectives { id type }\n")
	b.WriteString("        players {\n")
	writeLines(&b, "          ", fs.Player)
	if len(fs.PlayerLol) > 0 {
		b.WriteString("          ... on GamePlayerStateLol {\n")
		for _, f := range fs.PlayerLol {
			b.WriteString("            " + f + "\n")
		}
		b.WriteString("          }\n")
	}
	b.WriteString("        }\n")
	b.WriteString("      }\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String()
}

// writeLines groups scalar selections onto one line and gives each nested
// selection its own line.
func writeLines(b *strings.Builder, indent string, fields []string) {
	var scalars []string
	flush := func() {
		if len(scalars) > 0 {
			b.WriteString(indent + strings.Join(scalars, " ") + "\n")
			scalars = nil
		}
	}
	for _, f := range fields {
		if strings.Contains(f, "{") {
			flush()
			b.WriteString(indent + f + "\n")
			continue
		}
		scalars = append(scalars, f)
	}
	flush()
}
