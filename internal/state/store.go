package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// filePrefix is shared with earlier statusline builds so existing per-session
// totals keep accumulating after an upgrade.
const filePrefix = "claude-openrouter-cost-"

// Store reads and writes one JSON file per session under a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. An empty dir means os.TempDir().
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir}
}

// Dir returns the directory holding session files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the state file location for sessionID.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.dir, filePrefix+sanitizeID(sessionID)+".json")
}

// Load returns the stored record for sessionID, or a zero record when the
// file is missing, empty, unparseable, or its seen_ids is not an array.
// Individually mistyped scalar fields fall back to their zero values.
func (s *Store) Load(sessionID string) Record {
	path := s.Path(sessionID)
	data, err := os.ReadFile(path) //nolint:gosec // path derived from sanitized session id
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("state unreadable, starting fresh")
		}
		return Record{}.normalized()
	}
	rec, ok := Decode(data)
	if !ok {
		log.Warn().Str("path", path).Msg("state invalid, starting fresh")
	}
	return rec
}

// Decode parses a stored record. ok is false when the content had to be
// discarded entirely.
func Decode(data []byte) (Record, bool) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Record{}.normalized(), true
	}
	if !gjson.ValidBytes(data) {
		return Record{}.normalized(), false
	}

	doc := gjson.ParseBytes(data)
	ids := doc.Get("seen_ids")
	if !ids.IsArray() {
		return Record{}.normalized(), false
	}

	rec := Record{SeenIDs: []string{}}
	for _, v := range ids.Array() {
		if v.Type == gjson.String {
			rec.SeenIDs = append(rec.SeenIDs, v.Str)
		}
	}
	if v := doc.Get("total_cost"); v.Type == gjson.Number {
		rec.TotalCost = v.Num
	}
	if v := doc.Get("total_cache_discount"); v.Type == gjson.Number {
		rec.TotalCacheDiscount = v.Num
	}
	if v := doc.Get("last_provider"); v.Type == gjson.String {
		rec.LastProvider = v.Str
	}
	if v := doc.Get("last_model"); v.Type == gjson.String {
		rec.LastModel = v.Str
	}
	return rec, true
}

// Save replaces the stored record for sessionID. The write goes to a temp
// file in the same directory and is renamed into place, so readers see
// either the old record or the new one.
func (s *Store) Save(sessionID string, rec Record) error {
	data, err := json.MarshalIndent(rec.normalized(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	path := s.Path(sessionID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	committed = true
	return nil
}

// sanitizeID keeps the session file inside the store directory.
func sanitizeID(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", "\x00", "_")
	return r.Replace(id)
}
