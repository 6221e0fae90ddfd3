package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/nagyist/d2/pkg/schema"
)

// Definitions holds one definition per type name.
type Definitions struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewDefinitions() *Definitions {
	return &Definitions{defs: make(map[string]Definition)}
}

// Add fails when a definition with the same name was added before.
func (d *Definitions) Add(def Definition) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.defs[def.Name()]; ok {
		return fmt.Errorf("Model %s %w", def.Name(), ErrModelExists)
	}

	d.defs[def.Name()] = def
	return nil
}

func (d *Definitions) Get(name string) (Definition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.defs[name]
	return def, ok
}

func (d *Definitions) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.defs)
}

func (d *Definitions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.defs)
}

// LoadDefinitions compiles every schema src knows about.
func LoadDefinitions(ctx context.Context, f *Factory, src schema.Source) (*Definitions, error) {
	schemas, err := src.Schemas(ctx)
	if err != nil {
		return nil, err
	}

	attributes, err := src.Attributes(ctx)
	if err != nil {
		return nil, err
	}

	defs := NewDefinitions()
	for _, s := range schemas {
		def, err := f.CreateFromSchema(s, attributes)
		if err != nil {
			return nil, fmt.Errorf("unable to compile schema %s: %w", s.Name, err)
		}

		if err := defs.Add(def); err != nil {
			return nil, err
		}
	}

	log.WithField("definitions", defs.Len()).Info("model definitions loaded")
	return defs, nil
}
