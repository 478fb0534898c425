package export

import (
	"strconv"
)

// Table names, in export order.
const (
	TableTeams           = "teams"
	TablePlayers         = "players"
	TableChampions       = "champions"
	TableSeries          = "series"
	TableGames           = "games"
	TableDraftActions    = "draft_actions"
	TablePlayerGameStats = "player_game_stats"
)

// TableNames lists every table in export order.
var TableNames = []string{
	TableTeams, TablePlayers, TableChampions, TableSeries,
	TableGames, TableDraftActions, TablePlayerGameStats,
}

// Team is deduplicated by ID across all series.
type Team struct {
	ID   string `gorm:"type:text;primaryKey" json:"id"`
	Name string `gorm:"type:text" json:"name"`
}

func (Team) TableName() string { return TableTeams }

// Player is deduplicated by ID; TeamID and TeamName come from the last game seen.
type Player struct {
	ID       string `gorm:"type:text;primaryKey" json:"id"`
	Name     string `gorm:"type:text" json:"name"`
	TeamID   string `gorm:"type:text;index" json:"team_id"`
	TeamName string `gorm:"type:text" json:"team_name"`
}

func (Player) TableName() string { return TablePlayers }

// Champion is deduplicated by ID.
type Champion struct {
	ID   string `gorm:"type:text;primaryKey" json:"id"`
	Name string `gorm:"type:text" json:"name"`
}

func (Champion) TableName() string { return TableChampions }

// Series is one row per exported document.
type Series struct {
	ID            string  `gorm:"type:text;primaryKey" json:"id"`
	BlueTeamID    *string `gorm:"type:text" json:"blue_team_id"`
	RedTeamID     *string `gorm:"type:text" json:"red_team_id"`
	Format        string  `gorm:"type:text" json:"format"`
	MatchDate     string  `gorm:"type:text" json:"match_date"`
	Started       bool    `json:"started"`
	Finished      bool    `json:"finished"`
	SchemaVersion string  `gorm:"type:text" json:"schema_version"`
}

func (Series) TableName() string { return TableSeries }

// Game is one row per game of a series.
type Game struct {
	ID              string  `gorm:"type:text;index" json:"id"`
	SeriesID        string  `gorm:"type:text;index" json:"series_id"`
	GameNumber      int     `json:"game_number"`
	WinnerTeamID    *string `gorm:"type:text" json:"winner_team_id"`
	DurationSeconds int     `json:"duration_seconds"`
	PatchVersion    *string `gorm:"type:text" json:"patch_version"`
}

func (Game) TableName() string { return TableGames }

// DraftAction is one pick or ban, in upstream order.
type DraftAction struct {
	GameID         string `gorm:"type:text;index" json:"game_id"`
	SeriesID       string `gorm:"type:text;index" json:"series_id"`
	SequenceNumber string `gorm:"type:text" json:"sequence_number"`
	ActionType     string `gorm:"type:text" json:"action_type"`
	TeamID         string `gorm:"type:text" json:"team_id"`
	ChampionID     string `gorm:"type:text" json:"champion_id"`
	ChampionName   string `gorm:"type:text" json:"champion_name"`
}

func (DraftAction) TableName() string { return TableDraftActions }

// PlayerGameStat is one row per player per team per game. Pointer fields
// are nil when the series' schema version does not serve them.
type PlayerGameStat struct {
	GameID            string   `gorm:"type:text;index" json:"game_id"`
	SeriesID          string   `gorm:"type:text;index" json:"series_id"`
	PlayerID          string   `gorm:"type:text;index" json:"player_id"`
	PlayerName        string   `gorm:"type:text" json:"player_name"`
	TeamID            string   `gorm:"type:text" json:"team_id"`
	TeamSide          string   `gorm:"type:text" json:"team_side"`
	TeamWon           bool     `json:"team_won"`
	ChampionID        string   `gorm:"type:text" json:"champion_id"`
	ChampionName      string   `gorm:"type:text" json:"champion_name"`
	Role              string   `gorm:"type:text" json:"role"`
	Kills             int      `json:"kills"`
	Deaths            int      `json:"deaths"`
	Assists           int      `json:"assists"`
	KdaRatio          *float64 `json:"kda_ratio"`
	KillParticipation *float64 `json:"kill_participation"`
	DamageDealt       *float64 `json:"damage_dealt"`
	ExperiencePoints  *float64 `json:"experience_points"`
	VisionScore       *float64 `json:"vision_score"`
	FirstKill         *bool    `json:"first_kill"`
	TeamFirstKill     *bool    `json:"team_first_kill"`
}

func (PlayerGameStat) TableName() string { return TablePlayerGameStats }

// Skip records a document left out of the export.
type Skip struct {
	SeriesID string
	Reason   string
}

// Tables holds the normalized entities of a set of documents.
type Tables struct {
	Teams           []Team
	Players         []Player
	Champions       []Champion
	Series          []Series
	Games           []Game
	DraftActions    []DraftAction
	PlayerGameStats []PlayerGameStat

	// Skipped lists documents with GraphQL errors or no seriesState.
	Skipped []Skip
}

// Counts returns the row count of every table.
func (t *Tables) Counts() map[string]int {
	return map[string]int{
		TableTeams:           len(t.Teams),
		TablePlayers:         len(t.Players),
		TableChampions:       len(t.Champions),
		TableSeries:          len(t.Series),
		TableGames:           len(t.Games),
		TableDraftActions:    len(t.DraftActions),
		TablePlayerGameStats: len(t.PlayerGameStats),
	}
}

// Empty reports whether every table has zero rows.
func (t *Tables) Empty() bool {
	for _, n := range t.Counts() {
		if n > 0 {
			return false
		}
	}
	return true
}

// Records is a table rendered as text cells with a fixed column order.
type Records struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Records renders every table in export order.
func (t *Tables) Records() []Records {
	out := make([]Records, 0, len(TableNames))

	teams := Records{Name: TableTeams, Columns: []string{"id", "name"}}
	for _, r := range t.Teams {
		teams.Rows = append(teams.Rows, []string{r.ID, r.Name})
	}
	out = append(out, teams)

	players := Records{Name: TablePlayers, Columns: []string{"id", "name", "team_id", "team_name"}}
	for _, r := range t.Players {
		players.Rows = append(players.Rows, []string{r.ID, r.Name, r.TeamID, r.TeamName})
	}
	out = append(out, players)

	champions := Records{Name: TableChampions, Columns: []string{"id", "name"}}
	for _, r := range t.Champions {
		champions.Rows = append(champions.Rows, []string{r.ID, r.Name})
	}
	out = append(out, champions)

	series := Records{Name: TableSeries, Columns: []string{
		"id", "blue_team_id", "red_team_id", "format", "match_date", "started", "finished", "schema_version",
	}}
	for _, r := range t.Series {
		series.Rows = append(series.Rows, []string{
			r.ID, str(r.BlueTeamID), str(r.RedTeamID), r.Format, r.MatchDate,
			strconv.FormatBool(r.Started), strconv.FormatBool(r.Finished), r.SchemaVersion,
		})
	}
	out = append(out, series)

	games := Records{Name: TableGames, Columns: []string{
		"id", "series_id", "game_number", "winner_team_id", "duration_seconds", "patch_version",
	}}
	for _, r := range t.Games {
		games.Rows = append(games.Rows, []string{
			r.ID, r.SeriesID, strconv.Itoa(r.GameNumber), str(r.WinnerTeamID),
			strconv.Itoa(r.DurationSeconds), str(r.PatchVersion),
		})
	}
	out = append(out, games)

	draft := Records{Name: TableDraftActions, Columns: []string{
		"game_id", "series_id", "sequence_number", "action_type", "team_id", "champion_id", "champion_name",
	}}
	for _, r := range t.DraftActions {
		draft.Rows = append(draft.Rows, []string{
			r.GameID, r.SeriesID, r.SequenceNumber, r.ActionType, r.TeamID, r.ChampionID, r.ChampionName,
		})
	}
	out = append(out, draft)

	stats := Records{Name: TablePlayerGameStats, Columns: []string{
		"game_id", "series_id", "player_id", "player_name", "team_id", "team_side", "team_won",
		"champion_id", "champion_name", "role", "kills", "deaths", "assists", "kda_ratio",
		"kill_participation", "damage_dealt", "experience_points", "vision_score", "first_kill", "team_first_kill",
	}}
	for _, r := range t.PlayerGameStats {
		stats.Rows = append(stats.Rows, []string{
			r.GameID, r.SeriesID, r.PlayerID, r.PlayerName, r.TeamID, r.TeamSide, strconv.FormatBool(r.TeamWon),
			r.ChampionID, r.ChampionName, r.Role,
			strconv.Itoa(r.Kills), strconv.Itoa(r.Deaths), strconv.Itoa(r.Assists),
			float(r.KdaRatio), float(r.KillParticipation), float(r.DamageDealt),
			float(r.ExperiencePoints), float(r.VisionScore), boolean(r.FirstKill), boolean(r.TeamFirstKill),
		})
	}
	out = append(out, stats)

	return out
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func float(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func boolean(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}
