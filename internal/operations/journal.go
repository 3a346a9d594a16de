// Package operations journals lifecycle operations. Every install, upgrade,
// remove or URL change leaves one YAML record on disk with its state
// transitions and outcome, so failed runs can be audited after the fact.
//
// Journaling is best effort: a record that cannot be written produces a
// warning, never a failed operation.
package operations

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"steward/internal/api"
	"steward/pkg/logging"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const subsystem = "Operations"

// StateChange is one recorded transition.
type StateChange struct {
	State api.OperationState `yaml:"state"`
	At    time.Time          `yaml:"at"`
}

// Record is the durable journal entry for one operation.
type Record struct {
	ID        string        `yaml:"id"`
	Operation string        `yaml:"operation"`
	Instance  string        `yaml:"instance"`
	Started   time.Time     `yaml:"started"`
	Ended     *time.Time    `yaml:"ended,omitempty"`
	States    []StateChange `yaml:"states,omitempty"`
	Success   bool          `yaml:"success"`
	Error     string        `yaml:"error,omitempty"`
	Warnings  []string      `yaml:"warnings,omitempty"`
}

// Journal implements api.Journal on a directory of YAML records.
type Journal struct {
	mu   sync.Mutex
	dir  string
	open map[string]*openEntry
	now  func() time.Time
}

// openEntry pins the record file name chosen at Begin, so a record whose
// instance gets named mid-operation does not move to a second file.
type openEntry struct {
	record *Record
	file   string
}

// NewJournal creates a journal writing records under dir.
func NewJournal(dir string) *Journal {
	return &Journal{
		dir:  dir,
		open: make(map[string]*openEntry),
		now:  time.Now,
	}
}

// Begin opens a record and returns its id. For installs the instance is not
// named yet at this point, so callers pass the user's source reference; End
// adopts the final instance name from the result.
func (j *Journal) Begin(operation string, instance string) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	record := &Record{
		ID:        uuid.NewString(),
		Operation: operation,
		Instance:  instance,
		Started:   j.now().UTC(),
	}
	entry := &openEntry{record: record, file: j.fileName(record)}
	j.open[record.ID] = entry
	j.persist(entry)
	return record.ID
}

// Update notes a state transition on an open record.
func (j *Journal) Update(id string, state api.OperationState) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.open[id]
	if !ok {
		return
	}
	entry.record.States = append(entry.record.States, StateChange{State: state, At: j.now().UTC()})
	j.persist(entry)
}

// End closes the record with the operation's outcome.
func (j *Journal) End(id string, result *api.OperationResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.open[id]
	if !ok {
		return
	}
	delete(j.open, id)

	record := entry.record
	ended := j.now().UTC()
	record.Ended = &ended
	record.Success = result != nil && !result.Failed()
	if result != nil {
		if result.Instance != "" {
			record.Instance = result.Instance
		}
		if result.Err != nil {
			record.Error = result.Err.Error()
		}
		record.Warnings = result.Warnings
	}
	j.persist(entry)
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(limit int) ([]Record, error) {
	entries, err := os.ReadDir(j.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".yml" {
			names = append(names, entry.Name())
		}
	}
	// The timestamp prefix makes lexical order chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	records := make([]Record, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(j.dir, name))
		if err != nil {
			return nil, err
		}
		var record Record
		if err := yaml.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("corrupt journal record %s: %w", name, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Get returns one record by id.
func (j *Journal) Get(id string) (*Record, error) {
	records, err := j.Recent(0)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, api.NewNotFoundError("operation record", id)
}

func (j *Journal) persist(entry *openEntry) {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		logging.Warn(subsystem, "Cannot create journal directory: %v", err)
		return
	}
	raw, err := yaml.Marshal(entry.record)
	if err != nil {
		logging.Warn(subsystem, "Cannot serialize journal record %s: %v", entry.record.ID, err)
		return
	}
	if err := os.WriteFile(filepath.Join(j.dir, entry.file), raw, 0644); err != nil {
		logging.Warn(subsystem, "Cannot write journal record %s: %v", entry.record.ID, err)
	}
}

// fileNameUnsafe matches every byte that may not appear in a record file
// name. Install records are keyed by the user's source reference, which can
// be a URL or a filesystem path.
var fileNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (j *Journal) fileName(record *Record) string {
	label := fileNameUnsafe.ReplaceAllString(record.Instance, "_")
	if label == "" {
		label = "unnamed"
	}
	return fmt.Sprintf("%s-%s-%s.yml",
		record.Started.Format("20060102-150405"), record.Operation, label)
}
