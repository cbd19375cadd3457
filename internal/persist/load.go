package persist

import (
	"encoding/json"
	"os"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
)

// Load reads the pool document at path and decodes each family's entry
// list. A missing file yields an empty pool, matching the Persistence error
// taxonomy in SPEC_FULL.md §7.
func Load(path string) (map[family.Family][]*entry.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[family.Family][]*entry.Entry{}, nil
		}
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[family.Family][]*entry.Entry, len(raw))
	for key, body := range raw {
		var entries []*entry.Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, err
		}
		out[family.Family(key)] = entries
	}
	return out, nil
}
