// Package catalog loads the read-only term catalog of deadlines.
//
// The default term ships embedded in the binary. A different term can be
// loaded from a YAML file with LoadFile.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"deadline-intel/internal/model"
)

//go:embed data/term.yaml
var defaultTerm []byte

// Catalog is an immutable list of deadlines sorted by date.
type Catalog struct {
	term      string
	deadlines []model.Deadline
	index     map[string]int
}

// Default returns the embedded term catalog.
func Default() (*Catalog, error) {
	return Parse(defaultTerm)
}

// LoadFile loads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f termFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	records := make([]model.Deadline, 0, len(f.Deadlines))
	for i, d := range f.Deadlines {
		record, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("deadline #%d (%s): %w", i+1, d.ID, err)
		}
		records = append(records, record)
	}
	return New(f.Term, records)
}

// New validates records and builds a catalog. Records keep their relative order within a day.
func New(term string, records []model.Deadline) (*Catalog, error) {
	sorted := make([]model.Deadline, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	index := make(map[string]int, len(sorted))
	for i, d := range sorted {
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("deadline %q: %w", d.ID, err)
		}
		if _, dup := index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate deadline id %q", d.ID)
		}
		index[d.ID] = i
	}

	return &Catalog{term: term, deadlines: sorted, index: index}, nil
}

func validate(d model.Deadline) error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return fmt.Errorf("id is required")
	case strings.HasPrefix(d.ID, model.CustomIDPrefix):
		return fmt.Errorf("id prefix %q is reserved for custom deadlines", model.CustomIDPrefix)
	case strings.TrimSpace(d.Title) == "":
		return model.ErrTitleRequired
	case d.Date.IsZero():
		return model.ErrDateRequired
	case d.IsCustom || d.Type == model.TypeCustom:
		return fmt.Errorf("catalog records cannot be custom")
	case !d.Type.IsValid():
		return fmt.Errorf("unknown type %q", d.Type)
	case d.Priority < model.HighestPriority || d.Priority > model.LowestPriority:
		return fmt.Errorf("priority %d out of range", d.Priority)
	}
	if d.Subject != model.SubjectAll {
		if _, ok := model.LookupCourse(d.Subject); !ok {
			return fmt.Errorf("%w: %q", model.ErrUnknownCourse, d.Subject)
		}
	}
	return nil
}

func (c *Catalog) Term() string { return c.term }

func (c *Catalog) Len() int { return len(c.deadlines) }

// Deadlines returns a copy of all records in date order.
func (c *Catalog) Deadlines() []model.Deadline {
	out := make([]model.Deadline, len(c.deadlines))
	copy(out, c.deadlines)
	return out
}

// Get returns a record by id
func (c *Catalog) Get(id string) (model.Deadline, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Deadline{}, false
	}
	return c.deadlines[i], true
}

// --- YAML file structs ---

type termFile struct {
	Term      string         `yaml:"term"`
	Deadlines []deadlineFile `yaml:"deadlines"`
}

type deadlineFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Subject     string `yaml:"subject"`
	Type        string `yaml:"type"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority"`
}

func (f deadlineFile) toModel() (model.Deadline, error) {
	if strings.TrimSpace(f.Date) == "" {
		return model.Deadline{}, model.ErrDateRequired
	}
	date, err := model.ParseDate(f.Date)
	if err != nil {
		return model.Deadline{}, err
	}
	subject := model.Subject(strings.TrimSpace(f.Subject))
	if subject == "" {
		subject = model.SubjectAll
	}
	priority := f.Priority
	if priority == 0 {
		priority = model.LowestPriority
	}
	return model.Deadline{
		ID:          strings.TrimSpace(f.ID),
		Title:       strings.TrimSpace(f.Title),
		Subject:     subject,
		Type:        model.DeadlineType(strings.TrimSpace(f.Type)),
		Date:        date,
		Description: strings.TrimSpace(f.Description),
		Priority:    priority,
	}, nil
}
