package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed queries.yaml
var defaultQueries []byte

// ErrUnknownQuery is returned when a statement name is not configured.
var ErrUnknownQuery = errors.New("unknown query")

// Queries holds the named SQL statements used by the storage layer.
// Names are "<section>.<statement>", e.g. "series.create".
type Queries struct {
	statements map[string]string
}

// LoadQueries reads statements from a YAML file of the form
//
//	series:
//	  create: INSERT INTO ...
//
// An empty path loads the statements bundled with the binary.
func LoadQueries(path string) (*Queries, error) {
	data := defaultQueries
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read queries %q: %w", path, err)
		}
		data = b
	}
	return ParseQueries(data)
}

// ParseQueries decodes the YAML form accepted by LoadQueries.
func ParseQueries(data []byte) (*Queries, error) {
	var sections map[string]map[string]string
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("config: parse queries: %w", err)
	}

	q := &Queries{statements: make(map[string]string)}
	for section, stmts := range sections {
		for name, sql := range stmts {
			q.statements[section+"."+name] = sql
		}
	}
	return q, nil
}

// NewQueries builds a Queries from an already flattened map.
func NewQueries(statements map[string]string) *Queries {
	q := &Queries{statements: make(map[string]string, len(statements))}
	for k, v := range statements {
		q.statements[k] = v
	}
	return q
}

// Get returns the statement text for name.
func (q *Queries) Get(name string) (string, error) {
	sql, ok := q.statements[name]
	if !ok || sql == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	return sql, nil
}

// MustHave checks that all names are configured and reports the missing
// ones in a single error.
func (q *Queries) MustHave(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, err := q.Get(n); err != nil {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %v", ErrUnknownQuery, missing)
}

// Names returns all configured statement names, sorted.
func (q *Queries) Names() []string {
	names := make([]string, 0, len(q.statements))
	for n := range q.statements {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
