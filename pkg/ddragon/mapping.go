package ddragon

import (
	"sort"
	"strings"
)

// ChampionData is the champion.json document.
type ChampionData struct {
	Type    string                  `json:"type"`
	Version string                  `json:"version"`
	Data    map[string]ChampionInfo `json:"data"`
}

// ChampionInfo is one champion entry of champion.json.
type ChampionInfo struct {
	ID      string   `json:"id"`
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Partype string   `json:"partype"`
}

// Champion is one row of the icon mapping.
type Champion struct {
	DisplayName string `json:"display_name"`
	RiotKey     string `json:"riot_key"`
	RiotID      string `json:"riot_id"`
	Title       string `json:"title"`
	IconURL     string `json:"icon_url"`
	Tags        string `json:"tags"`
	Partype     string `json:"partype"`
}

// Columns is the CSV header of the icon mapping.
var Columns = []string{"display_name", "riot_key", "riot_id", "title", "icon_url", "tags", "partype"}

// Record renders the champion in Columns order.
func (c Champion) Record() []string {
	return []string{c.DisplayName, c.RiotKey, c.RiotID, c.Title, c.IconURL, c.Tags, c.Partype}
}

// gridOverrides pin GRID names whose Data Dragon key differs from the name.
var gridOverrides = map[string]string{
	"Nunu & Willump": "Nunu",
	"Renata Glasc":   "Renata",
	"Wukong":         "MonkeyKing",
}

// IconURL returns the square icon of a champion.
func IconURL(baseURL, version, riotKey string) string {
	return baseURL + "/cdn/" + version + "/img/champion/" + riotKey + ".png"
}

// BuildMapping flattens champion data into rows sorted by display name.
func BuildMapping(data *ChampionData, version, baseURL string) []Champion {
	out := make([]Champion, 0, len(data.Data))
	for riotKey, info := range data.Data {
		out = append(out, Champion{
			DisplayName: info.Name,
			RiotKey:     riotKey,
			RiotID:      info.ID,
			Title:       info.Title,
			IconURL:     IconURL(baseURL, version, riotKey),
			Tags:        strings.Join(info.Tags, "|"),
			Partype:     info.Partype,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].RiotKey < out[j].RiotKey
	})
	return out
}

// GridNameMapping maps every spelling GRID may use for a champion to its
// Data Dragon key: the display name, variants without apostrophes or
// spaces, with a typographic apostrophe, with "and" for "&", and the
// fixed overrides.
func GridNameMapping(champions []Champion) map[string]string {
	out := make(map[string]string, len(champions)*2)
	for _, c := range champions {
		name := c.DisplayName
		out[name] = c.RiotKey

		variants := []string{
			strings.ReplaceAll(name, "'", ""),
			strings.ReplaceAll(name, "'", "’"),
			strings.ReplaceAll(name, " ", ""),
			strings.ReplaceAll(name, "&", "and"),
		}
		for _, v := range variants {
			if v != name {
				out[v] = c.RiotKey
			}
		}
	}
	for name, key := range gridOverrides {
		out[name] = key
	}
	return out
}
