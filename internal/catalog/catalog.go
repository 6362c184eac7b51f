// Package catalog holds the ordered directive catalog and the aggregator that folds per-file
// records into it.
package catalog

import (
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/origadmin/dirgen/internal/model"
)

// Catalog maps directive names to records and remembers the order in which names were first
// inserted. Replacing a record keeps its position.
type Catalog struct {
	names   []string
	records map[string]*model.Record
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{records: make(map[string]*model.Record)}
}

// Get returns the record stored for name.
func (c *Catalog) Get(name string) (*model.Record, bool) {
	rec, ok := c.records[name]
	return rec, ok
}

// Len returns the number of directives in the catalog.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the directive names in first-insertion order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Records returns the records in first-insertion order.
func (c *Catalog) Records() []*model.Record {
	out := make([]*model.Record, len(c.names))
	for i, name := range c.names {
		out[i] = c.records[name]
	}
	return out
}

// Set stores rec under its name. A new name is appended; an existing one keeps its position.
// It returns the record that was replaced, if any.
func (c *Catalog) Set(rec *model.Record) (*model.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("catalog: nil record")
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	prev, ok := c.records[rec.Name]
	if !ok {
		c.names = append(c.names, rec.Name)
	}
	c.records[rec.Name] = rec
	return prev, nil
}

// Delete removes name from the catalog and reports whether it was present.
func (c *Catalog) Delete(name string) bool {
	if _, ok := c.records[name]; !ok {
		return false
	}
	delete(c.records, name)
	c.names = slices.DeleteFunc(c.names, func(n string) bool { return n == name })
	return true
}

// Clone returns an independent copy of the catalog. Records are shared; they are never
// mutated once created.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		names:   slices.Clone(c.names),
		records: make(map[string]*model.Record, len(c.records)),
	}
	for name, rec := range c.records {
		out.records[name] = rec
	}
	return out
}

// FromRecords builds a catalog from records in order. Duplicate names are rejected.
func FromRecords(records []*model.Record) (*Catalog, error) {
	c := New()
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("catalog: record %d is empty", i)
		}
		if _, dup := c.records[rec.Name]; dup {
			return nil, fmt.Errorf("catalog: directive %q appears twice", rec.Name)
		}
		if _, err := c.Set(rec); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MarshalJSON encodes the catalog as an ordered list of records.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Records())
}

// UnmarshalJSON decodes an ordered list of records.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var records []*model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	decoded, err := FromRecords(records)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

// MarshalYAML encodes the catalog as an ordered sequence of records.
func (c *Catalog) MarshalYAML() (any, error) {
	return c.Records(), nil
}

// UnmarshalYAML decodes an ordered sequence of records.
func (c *Catalog) UnmarshalYAML(value *yaml.Node) error {
	var records []*model.Record
	if err := value.Decode(&records); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	decoded, err := FromRecords(records)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}
