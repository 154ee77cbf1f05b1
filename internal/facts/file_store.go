package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// fileEntry is the on-disk JSON shape for a single card.
type fileEntry struct {
	Name       string  `json:"name,omitempty"`
	ManaValue  float64 `json:"mana_value"`
	TypeLine   string  `json:"type_line"`
	OracleText string  `json:"oracle_text"`
}

// FileStore is a Resolver backed by a local JSON card-data file.
//
// The file maps card names to attributes:
//
//	{
//	  "Sol Ring": {"mana_value": 1, "type_line": "Artifact", "oracle_text": "{T}: Add {C}{C}."}
//	}
//
// The whole file is loaded at open time so lookups during deck enrichment
// never touch the disk.
type FileStore struct {
	path  string
	cards map[string]Facts
}

// OpenFileStore loads a JSON card-data file.
func OpenFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card data file: %w", err)
	}

	var raw map[string]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse card data file %s: %w", path, err)
	}

	s := &FileStore{
		path:  path,
		cards: make(map[string]Facts, len(raw)),
	}
	for name, e := range raw {
		display := e.Name
		if display == "" {
			display = name
		}
		s.cards[Normalize(name)] = Facts{
			Name:       display,
			ManaValue:  e.ManaValue,
			TypeLine:   e.TypeLine,
			OracleText: e.OracleText,
		}
	}
	return s, nil
}

// Resolve implements Resolver.
func (s *FileStore) Resolve(_ context.Context, name string) (Facts, error) {
	f, ok := s.cards[Normalize(name)]
	if !ok {
		return Facts{}, fmt.Errorf("resolve %q from %s: %w", name, s.path, ErrNotFound)
	}
	return f, nil
}

// Len returns the number of cards loaded from the file.
func (s *FileStore) Len() int {
	return len(s.cards)
}
