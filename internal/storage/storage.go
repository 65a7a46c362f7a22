package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

const fileSuffix = "_events.json"

// ErrCorrupt is returned by Load when a store file exists but cannot be
// decoded. The records returned alongside it are empty.
var ErrCorrupt = errors.New("corrupt store file")

// Store persists one JSON array of records per venue.
type Store struct {
	dataDir string
}

// New creates a Store rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{dataDir: dataDir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dataDir
}

// Path returns the store file for a venue.
func (s *Store) Path(venue string) string {
	return filepath.Join(s.dataDir, venue+fileSuffix)
}

func checkVenue(venue string) error {
	if venue == "" || strings.ContainsAny(venue, `/\`) || venue == "." || venue == ".." {
		return fmt.Errorf("invalid venue name %q", venue)
	}
	return nil
}

// Load reads a venue's records. A missing file yields an empty slice and no
// error. Records are normalized on the way in.
func (s *Store) Load(venue string) ([]*event.Record, error) {
	if err := checkVenue(venue); err != nil {
		return nil, err
	}
	path := s.Path(venue)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*event.Record{}, nil
		}
		return nil, fmt.Errorf("reading store: %w", err)
	}

	var records []*event.Record
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return []*event.Record{}, fmt.Errorf("%w %s: %v", ErrCorrupt, path, err)
		}
	}

	out := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		r.Normalize()
		if r.Venue == "" {
			r.Venue = venue
		}
		out = append(out, r)
	}
	return out, nil
}

// Save writes a venue's records sorted by date. The file is replaced
// atomically so readers never observe a partial write.
func (s *Store) Save(venue string, records []*event.Record) error {
	if err := checkVenue(venue); err != nil {
		return err
	}

	sorted := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, venue+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(venue)); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

// Update loads a venue, applies fn to the record with the given identity key
// and saves the result. It returns event.ErrNotFound when no record matches
// and refuses to touch a corrupt store.
func (s *Store) Update(venue string, key event.Key, fn func(*event.Record) error) (*event.Record, error) {
	records, err := s.Load(venue)
	if err != nil {
		return nil, err
	}

	i := event.Find(records, key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s in %s", event.ErrNotFound, key, venue)
	}

	updated := records[i].Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	newKey := event.IdentityKey(updated)
	for j, r := range records {
		if j != i && event.IdentityKey(r) == newKey {
			return nil, fmt.Errorf("%w: %s in %s", event.ErrDuplicateKey, newKey, venue)
		}
	}
	records[i] = updated

	if err := s.Save(venue, records); err != nil {
		return nil, err
	}
	return updated, nil
}

// Quarantine moves a venue's store file aside as <file>.corrupt-<unix time>
// so the next Save starts fresh without destroying the unreadable data. It
// returns the new path.
func (s *Store) Quarantine(venue string, now time.Time) (string, error) {
	if err := checkVenue(venue); err != nil {
		return "", err
	}
	dst := fmt.Sprintf("%s.corrupt-%d", s.Path(venue), now.Unix())
	if err := os.Rename(s.Path(venue), dst); err != nil {
		return "", fmt.Errorf("quarantining store: %w", err)
	}
	return dst, nil
}

// Venues lists the venues that have a store file, sorted by name.
func (s *Store) Venues() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("listing data directory: %w", err)
	}

	var venues []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		venues = append(venues, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(venues)
	return venues, nil
}
