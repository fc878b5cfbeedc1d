// Package archive records generated deals as TOML so a run can be
// reviewed or replayed later.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/lox/redeal/bridge"
	"github.com/lox/redeal/internal/fileutil"
)

// Archive is the on-disk record of one dealing run.
type Archive struct {
	RunID   string    `toml:"run_id"`
	Seed    int64     `toml:"seed"`
	Created time.Time `toml:"created"`
	Tries   int       `toml:"tries"`
	Found   int       `toml:"found"`
	Deals   []Entry   `toml:"deal"`
}

// Entry is one accepted deal.
type Entry struct {
	Number int    `toml:"number"`
	PBN    string `toml:"pbn"`
}

// New starts an archive for a run seeded with seed.
func New(seed int64, created time.Time) *Archive {
	return &Archive{
		RunID:   uuid.NewString()[:8],
		Seed:    seed,
		Created: created.UTC().Truncate(time.Second),
	}
}

// Add appends a deal and bumps Found.
func (a *Archive) Add(d bridge.Deal) {
	a.Deals = append(a.Deals, Entry{Number: len(a.Deals) + 1, PBN: d.PBN()})
	a.Found = len(a.Deals)
}

// Encode writes the archive as TOML.
func (a *Archive) Encode(w io.Writer) error {
	if a == nil {
		return errors.New("archive: nil archive")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(a)
}

// Save writes the archive to path, replacing any existing file atomically.
func (a *Archive) Save(path string) error {
	return fileutil.WriteAtomic(path, 0o644, a.Encode)
}

// Decode reads an archive from r.
func Decode(r io.Reader) (*Archive, error) {
	var a Archive
	if _, err := toml.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &a, nil
}

// Load reads an archive file.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Parse returns the archived deals.
func (a *Archive) Parse() ([]bridge.Deal, error) {
	deals := make([]bridge.Deal, 0, len(a.Deals))
	for _, e := range a.Deals {
		d, err := bridge.ParsePBN(e.PBN)
		if err != nil {
			return nil, fmt.Errorf("archive deal %d: %w", e.Number, err)
		}
		deals = append(deals, d)
	}
	return deals, nil
}
