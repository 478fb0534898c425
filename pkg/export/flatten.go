package export

import (
	"math"

	"github.com/Sternrassler/lol-series-fetcher/pkg/client"
	"github.com/Sternrassler/lol-series-fetcher/pkg/query"
)

// Skip reasons.
const (
	SkipInvalidJSON   = "invalid JSON"
	SkipGraphQLErrors = "response has GraphQL errors"
	SkipNoSeriesState = "response has no seriesState"
)

// Document is one stored series-state response.
type Document struct {
	SeriesID string
	Body     []byte
}

// keyed keeps first-seen order while letting later rows replace earlier ones.
type keyed[T any] struct {
	index map[string]int
	rows  []T
}

func newKeyed[T any]() *keyed[T] {
	return &keyed[T]{index: make(map[string]int)}
}

func (k *keyed[T]) put(id string, row T) {
	if i, ok := k.index[id]; ok {
		k.rows[i] = row
		return
	}
	k.index[id] = len(k.rows)
	k.rows = append(k.rows, row)
}

// Flatten normalizes documents into tables. Documents carrying GraphQL
// errors or no seriesState are recorded in Tables.Skipped.
func Flatten(docs []Document) *Tables {
	t := &Tables{}
	teams := newKeyed[Team]()
	players := newKeyed[Player]()
	champions := newKeyed[Champion]()

	for _, doc := range docs {
		resp, err := client.Decode(doc.Body)
		if err != nil {
			t.Skipped = append(t.Skipped, Skip{SeriesID: doc.SeriesID, Reason: SkipInvalidJSON})
			continue
		}
		if resp.HasErrors() {
			t.Skipped = append(t.Skipped, Skip{SeriesID: doc.SeriesID, Reason: SkipGraphQLErrors})
			continue
		}
		state := resp.SeriesState()
		if state == nil {
			t.Skipped = append(t.Skipped, Skip{SeriesID: doc.SeriesID, Reason: SkipNoSeriesState})
			continue
		}

		for _, team := range state.Teams {
			teams.put(team.ID, Team{ID: team.ID, Name: team.Name})
		}

		series := Series{
			ID:            doc.SeriesID,
			Format:        string(state.Format),
			Started:       state.Started,
			Finished:      state.Finished,
			SchemaVersion: query.DefaultVersion,
		}
		if state.Version != nil && *state.Version != "" {
			series.SchemaVersion = *state.Version
		}
		if state.StartedAt != nil {
			series.MatchDate = *state.StartedAt
		}

		for _, game := range state.Games {
			for _, team := range game.Teams {
				id := team.ID
				switch team.Side {
				case "blue":
					series.BlueTeamID = &id
				case "red":
					series.RedTeamID = &id
				}
			}
			t.Games = append(t.Games, flattenGame(doc.SeriesID, game))

			for _, action := range game.DraftActions {
				row := DraftAction{
					GameID:         game.ID,
					SeriesID:       doc.SeriesID,
					SequenceNumber: string(action.SequenceNumber),
					ActionType:     action.Type,
				}
				if action.Drafter != nil {
					row.TeamID = action.Drafter.ID
				}
				if action.Draftable != nil {
					row.ChampionID = action.Draftable.ID
					row.ChampionName = action.Draftable.Name
				}
				if row.ChampionID != "" {
					champions.put(row.ChampionID, Champion{ID: row.ChampionID, Name: row.ChampionName})
				}
				t.DraftActions = append(t.DraftActions, row)
			}

			for _, team := range game.Teams {
				for _, p := range team.Players {
					players.put(p.ID, Player{ID: p.ID, Name: p.Name, TeamID: team.ID, TeamName: team.Name})
					stat := flattenPlayer(doc.SeriesID, game.ID, team, p)
					if stat.ChampionID != "" {
						champions.put(stat.ChampionID, Champion{ID: stat.ChampionID, Name: stat.ChampionName})
					}
					t.PlayerGameStats = append(t.PlayerGameStats, stat)
				}
			}
		}

		t.Series = append(t.Series, series)
	}

	t.Teams = teams.rows
	t.Players = players.rows
	t.Champions = champions.rows
	return t
}

func flattenGame(seriesID string, game client.Game) Game {
	row := Game{
		ID:         game.ID,
		SeriesID:   seriesID,
		GameNumber: game.SequenceNumber,
	}
	for _, team := range game.Teams {
		if team.Won {
			id := team.ID
			row.WinnerTeamID = &id
		}
	}
	if game.Clock != nil {
		row.DurationSeconds = game.Clock.CurrentSeconds
	}
	if game.TitleVersion != nil {
		patch := game.TitleVersion.Name
		row.PatchVersion = &patch
	}
	return row
}

func flattenPlayer(seriesID, gameID string, team client.GameTeam, p client.Player) PlayerGameStat {
	stat := PlayerGameStat{
		GameID:           gameID,
		SeriesID:         seriesID,
		PlayerID:         p.ID,
		PlayerName:       p.Name,
		TeamID:           team.ID,
		TeamSide:         team.Side,
		TeamWon:          team.Won,
		Kills:            p.Kills,
		Deaths:           p.Deaths,
		Assists:          p.KillAssistsGiven,
		DamageDealt:      round2Ptr(p.DamageDealt),
		ExperiencePoints: round2Ptr(p.ExperiencePoints),
		FirstKill:        p.FirstKill,
		TeamFirstKill:    team.FirstKill,
	}
	if p.Character != nil {
		stat.ChampionID = p.Character.ID
		stat.ChampionName = p.Character.Name
	}

	stat.Role = InferRole(stat.ChampionName)
	if len(p.Roles) > 0 {
		stat.Role = p.Roles[0].ID
		if stat.Role == "" {
			stat.Role = RoleUnknown
		}
	}

	stat.KdaRatio = KDA(p.Kills, p.Deaths, p.KillAssistsGiven, p.KdaRatio)
	stat.KillParticipation = KillParticipation(p.Kills, p.KillAssistsGiven, team.Kills, p.KillParticipation)
	stat.VisionScore = round2Ptr(p.VisionScore)
	return stat
}

// KDA returns upstream rounded to two decimals, or (kills+assists)/max(deaths,1).
func KDA(kills, deaths, assists int, upstream *float64) *float64 {
	var v float64
	if upstream != nil {
		v = *upstream
	} else {
		v = float64(kills+assists) / float64(max(deaths, 1))
	}
	v = round2(v)
	return &v
}

// KillParticipation returns upstream rounded to two decimals, or the share
// of team kills the player took part in as a percentage. Nil when neither
// is available.
func KillParticipation(kills, assists, teamKills int, upstream *float64) *float64 {
	var v float64
	switch {
	case upstream != nil:
		v = *upstream
	case teamKills > 0:
		v = float64(kills+assists) / float64(teamKills) * 100
	default:
		return nil
	}
	v = round2(v)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}
