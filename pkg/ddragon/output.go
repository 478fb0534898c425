package ddragon

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
)

// Output file names.
const (
	ChampionsFile = "champions_datadragon.json"
	IconCSVFile   = "champion_icon_mapping.csv"
	GridMapFile   = "grid_to_riot_key.json"
)

// Document is the content of ChampionsFile.
type Document struct {
	Version   string     `json:"version"`
	Champions []Champion `json:"champions"`
}

// WriteOutputs writes the three reference files into dir and returns their paths.
func WriteOutputs(dir, version string, champions []Champion, gridMap map[string]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	doc, err := encodeJSON(Document{Version: version, Champions: champions})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ChampionsFile, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(Columns)
	for _, c := range champions {
		w.Write(c.Record())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", IconCSVFile, err)
	}

	// json sorts map keys
	grid, err := encodeJSON(gridMap)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", GridMapFile, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{ChampionsFile, doc},
		{IconCSVFile, buf.Bytes()},
		{GridMapFile, grid},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := progress.WriteFileAtomic(path, f.data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// encodeJSON indents v and leaves "&" in champion names unescaped.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
