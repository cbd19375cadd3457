package entry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// wireEntry is the on-disk shape of an Entry: every §3 field, present even
// when nil so missing optional fields serialize as explicit null rather than
// being omitted (per the pool document format in SPEC_FULL.md §6).
type wireEntry struct {
	UUID                 string          `json:"uuid"`
	Credentials          json.RawMessage `json:"credentials"`
	CheckModelName       *string         `json:"checkModelName"`
	CheckHealth          bool            `json:"checkHealth"`
	NotSupportedModels   []string        `json:"notSupportedModels"`
	IsHealthy            bool            `json:"isHealthy"`
	IsDisabled           bool            `json:"isDisabled"`
	ErrorCount           int             `json:"errorCount"`
	UsageCount           int64           `json:"usageCount"`
	LastUsed             *string         `json:"lastUsed"`
	LastErrorTime        *string         `json:"lastErrorTime"`
	LastErrorMessage     *string         `json:"lastErrorMessage"`
	LastHealthCheckTime  *string         `json:"lastHealthCheckTime"`
	LastHealthCheckModel *string         `json:"lastHealthCheckModel"`
	UsageInfo            *UsageSnapshot  `json:"usageInfo"`
}

const isoLayout = "2006-01-02T15:04:05.999999999Z07:00"

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(isoLayout)
	return &s
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalJSON emits every known field plus any preserved extras merged in,
// so unrecognized keys a human added to the document survive a save.
func (e *Entry) MarshalJSON() ([]byte, error) {
	e.mu.RLock()
	w := wireEntry{
		UUID:                 e.UUID,
		Credentials:          e.Credentials,
		NotSupportedModels:   cloneStrings(e.NotSupportedModels),
		CheckHealth:          e.CheckHealth,
		IsHealthy:            e.isHealthy,
		IsDisabled:           e.isDisabled,
		ErrorCount:           e.errorCount,
		UsageCount:           e.usageCount,
		LastUsed:             formatTime(e.lastUsed),
		LastErrorTime:        formatTime(e.lastErrorTime),
		LastErrorMessage:     e.lastErrorMessage,
		LastHealthCheckTime:  formatTime(e.lastHealthCheckTime),
		LastHealthCheckModel: e.lastHealthCheckModel,
		UsageInfo:            e.usageInfo,
	}
	if e.CheckModelName != "" {
		w.CheckModelName = &e.CheckModelName
	}
	extras := make(map[string]json.RawMessage, len(e.extras))
	for k, v := range e.extras {
		extras[k] = v
	}
	e.mu.RUnlock()

	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if len(extras) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(extras)+16)
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(base, &decoded); err != nil {
		return nil, err
	}
	for k, v := range decoded {
		merged[k] = v
	}
	for k, v := range extras {
		merged[k] = v
	}
	return json.Marshal(merged)
}

var knownEntryKeys = map[string]bool{
	"uuid": true, "credentials": true, "checkModelName": true,
	"checkHealth": true, "notSupportedModels": true, "isHealthy": true,
	"isDisabled": true, "errorCount": true, "usageCount": true,
	"lastUsed": true, "lastErrorTime": true, "lastErrorMessage": true,
	"lastHealthCheckTime": true, "lastHealthCheckModel": true,
	"usageInfo": true,
}

// UnmarshalJSON parses a stored entry, defaulting missing counter fields per
// the Lifecycle rules in SPEC_FULL.md §3, and stashes unrecognized keys so
// they round-trip on the next save.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var w wireEntry
	w.CheckHealth = true // default when the key is entirely absent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	lastUsed, err := parseTime(w.LastUsed)
	if err != nil {
		return err
	}
	lastErrorTime, err := parseTime(w.LastErrorTime)
	if err != nil {
		return err
	}
	lastHealthCheckTime, err := parseTime(w.LastHealthCheckTime)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.UUID = w.UUID
	if e.UUID == "" {
		e.UUID = uuid.NewString() // hand-edited entry with no id of its own
	}
	e.Credentials = w.Credentials
	if w.CheckModelName != nil {
		e.CheckModelName = *w.CheckModelName
	}
	e.CheckHealth = w.CheckHealth
	e.NotSupportedModels = w.NotSupportedModels
	e.isHealthy = w.IsHealthy
	if _, present := raw["isHealthy"]; !present {
		e.isHealthy = true // default per Lifecycle rules
	}
	e.isDisabled = w.IsDisabled
	e.errorCount = w.ErrorCount
	e.usageCount = w.UsageCount
	e.lastUsed = lastUsed
	e.lastErrorTime = lastErrorTime
	e.lastErrorMessage = w.LastErrorMessage
	e.lastHealthCheckTime = lastHealthCheckTime
	e.lastHealthCheckModel = w.LastHealthCheckModel
	e.usageInfo = w.UsageInfo

	e.extras = map[string]json.RawMessage{}
	for k, v := range raw {
		if !knownEntryKeys[k] {
			e.extras[k] = v
		}
	}
	return nil
}
