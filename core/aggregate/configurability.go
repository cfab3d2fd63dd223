package aggregate

import (
	"github.com/huangsam/kmetrics/core/classify"
	"github.com/huangsam/kmetrics/schema"
)

// Configurability marks declared configs that some extractor found as a feature
// of their revision. Marks are never cleared.
type Configurability struct {
	rows  []schema.ConfigurableRecord
	index map[string]map[string][]int // revision -> config -> row indexes
}

// NewConfigurability creates an unmarked table from the declared configs.
func NewConfigurability(configs []schema.ConfigRecord) *Configurability {
	c := &Configurability{
		rows:  make([]schema.ConfigurableRecord, len(configs)),
		index: make(map[string]map[string][]int),
	}
	for i, rec := range configs {
		c.rows[i] = schema.ConfigurableRecord{ConfigRecord: rec}
		if c.index[rec.Revision] == nil {
			c.index[rec.Revision] = make(map[string][]int)
		}
		c.index[rec.Revision][rec.Config] = append(c.index[rec.Revision][rec.Config], i)
	}
	return c
}

// Mark sets the configurable bit of every row of revision whose config is in features.
func (c *Configurability) Mark(revision string, features classify.Set) {
	byConfig := c.index[revision]
	for name := range features {
		for _, i := range byConfig[name] {
			c.rows[i].Configurable = true
		}
	}
}

// Records returns a copy of the table in declaration order.
func (c *Configurability) Records() []schema.ConfigurableRecord {
	out := make([]schema.ConfigurableRecord, len(c.rows))
	copy(out, c.rows)
	return out
}
