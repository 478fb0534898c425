package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the GraphQL envelope returned by the series-state endpoint.
type Response struct {
	Data   *ResponseData  `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// ResponseData holds the query root.
type ResponseData struct {
	SeriesState *SeriesState `json:"seriesState"`
}

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// SeriesState is the superset of every query tier's selections. Fields that
// only some schema versions serve are pointers and stay nil when absent.
type SeriesState struct {
	ID        string       `json:"id"`
	Version   *string      `json:"version"`
	Title     *Title       `json:"title"`
	Format    Scalar       `json:"format"`
	Started   bool         `json:"started"`
	Finished  bool         `json:"finished"`
	StartedAt *string      `json:"startedAt"`
	Teams     []SeriesTeam `json:"teams"`
	Games     []Game       `json:"games"`
}

type Title struct {
	NameShortened string `json:"nameShortened"`
}

// SeriesTeam is a team at series level.
type SeriesTeam struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Won   *bool  `json:"won"`
	Score *int   `json:"score"`
}

// Game is one game within a series.
type Game struct {
	ID             string        `json:"id"`
	SequenceNumber int           `json:"sequenceNumber"`
	Started        bool          `json:"started"`
	Finished       bool          `json:"finished"`
	Paused         bool          `json:"paused"`
	Clock          *Clock        `json:"clock"`
	Map            *Map          `json:"map"`
	TitleVersion   *TitleVersion `json:"titleVersion"`
	DraftActions   []DraftAction `json:"draftActions"`
	Teams          []GameTeam    `json:"teams"`
}

type Clock struct {
	CurrentSeconds int  `json:"currentSeconds"`
	Ticking        bool `json:"ticking"`
}

type Map struct {
	Name string `json:"name"`
}

type TitleVersion struct {
	Name string `json:"name"`
}

// DraftAction is a single pick or ban.
type DraftAction struct {
	ID             string     `json:"id"`
	SequenceNumber Scalar     `json:"sequenceNumber"`
	Type           string     `json:"type"`
	Drafter        *Drafter   `json:"drafter"`
	Draftable      *Draftable `json:"draftable"`
}

type Drafter struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Draftable struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// GameTeam is a team's state within one game.
type GameTeam struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Side                string      `json:"side"`
	Won                 bool        `json:"won"`
	Score               *int        `json:"score"`
	Kills               int         `json:"kills"`
	Deaths              int         `json:"deaths"`
	StructuresDestroyed *int        `json:"structuresDestroyed"`
	FirstKill           *bool       `json:"firstKill"`
	Objectives          []Objective `json:"objectives"`
	Players             []Player    `json:"players"`
}

type Objective struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Player is a player's state within one game.
type Player struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	ParticipationStatus string     `json:"participationStatus"`
	Character           *Character `json:"character"`
	Roles               []Role     `json:"roles"`
	Kills               int        `json:"kills"`
	Deaths              int        `json:"deaths"`
	KillAssistsGiven    int        `json:"killAssistsGiven"`

	// v3.10+
	FirstKill *bool `json:"firstKill"`

	// v3.23+
	DamageDealt      *float64 `json:"damageDealt"`
	ExperiencePoints *float64 `json:"experiencePoints"`

	// v3.30+
	VisionScore *float64 `json:"visionScore"`
	KdaRatio    *float64 `json:"kdaRatio"`

	// v3.35+
	KillParticipation *float64 `json:"killParticipation"`
}

type Character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Role is an upstream-assigned position.
type Role struct {
	ID string `json:"id"`
}

// Scalar holds a JSON string or number as text. Upstream serves some
// identifiers as either depending on schema version.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("scalar: %w", err)
	}
	*s = Scalar(num.String())
	return nil
}

// Decode parses a raw series-state response body.
func Decode(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HasErrors reports whether the response carries a GraphQL errors array,
// even an empty one.
func (r *Response) HasErrors() bool {
	return r != nil && r.Errors != nil
}

// SeriesState returns the root object, or nil if the response has none.
func (r *Response) SeriesState() *SeriesState {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.SeriesState
}

// TeamNames returns the series' team names, each truncated to max runes.
func (s *SeriesState) TeamNames(max int) []string {
	names := make([]string, 0, len(s.Teams))
	for _, t := range s.Teams {
		name := t.Name
		if name == "" {
			name = "?"
		}
		if r := []rune(name); max > 0 && len(r) > max {
			name = string(r[:max])
		}
		names = append(names, name)
	}
	return names
}
