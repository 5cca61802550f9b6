package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/airagroup/dobee"
)

type (
	modelFile struct {
		Namespace string    `yaml:"namespace"`
		Entities  yaml.Node `yaml:"entities"`
	}
	entityFile struct {
		PrimaryKey    string         `yaml:"primaryKey"`
		Extends       string         `yaml:"extends"`
		Abstract      bool           `yaml:"abstract"`
		Loggable      bool           `yaml:"loggable"`
		SoftDeletable bool           `yaml:"softDeletable"`
		Properties    yaml.Node      `yaml:"properties"`
		Relations     yaml.Node      `yaml:"relations"`
		Blameable     *blameableFile `yaml:"blameable"`
		Order         *orderFile     `yaml:"order"`
	}
	blameableFile struct {
		Property     string `yaml:"property"`
		TargetEntity string `yaml:"targetEntity"`
		NullValue    any    `yaml:"nullValue"`
	}
	orderFile struct {
		Property  string `yaml:"property"`
		Direction string `yaml:"direction"`
	}
)

// LoadFile reads and validates a model file.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dobee/schema: open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and validates a YAML model. Entities, properties and relations
// keep the order of the document.
func Load(r io.Reader) (*Model, error) {
	var mf modelFile
	if err := yaml.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("dobee/schema: parse model: %w", err)
	}
	var entities []*Entity
	err := eachPair(&mf.Entities, func(name string, node *yaml.Node) error {
		var ef entityFile
		if err := node.Decode(&ef); err != nil {
			return fmt.Errorf("dobee/schema: entity %q: %w", name, err)
		}
		e, err := ef.entity(name)
		if err != nil {
			return err
		}
		entities = append(entities, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewModel(mf.Namespace, entities...)
}

func (ef *entityFile) entity(name string) (*Entity, error) {
	e := &Entity{
		Name:          name,
		PrimaryKey:    ef.PrimaryKey,
		Extends:       ef.Extends,
		Abstract:      ef.Abstract,
		Loggable:      ef.Loggable,
		SoftDeletable: ef.SoftDeletable,
	}
	if b := ef.Blameable; b != nil {
		e.Blameable = &Blameable{Property: b.Property, TargetEntity: b.TargetEntity, NullValue: b.NullValue}
	}
	if o := ef.Order; o != nil {
		e.DefaultOrder = &Order{Property: o.Property, Direction: o.Direction}
	}
	err := eachPair(&ef.Properties, func(prop string, node *yaml.Node) error {
		raw := node.Value
		if node.Kind == yaml.MappingNode {
			var p struct {
				Type string `yaml:"type"`
			}
			if err := node.Decode(&p); err != nil {
				return fmt.Errorf("dobee/schema: %s.%s: %w", name, prop, err)
			}
			raw = p.Type
		}
		t, err := ParsePropertyType(raw)
		if err != nil {
			return dobee.NewInvalidPropertyTypeError(name, prop, raw)
		}
		e.Properties = append(e.Properties, Property{Name: prop, Type: t})
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = eachPair(&ef.Relations, func(target string, node *yaml.Node) error {
		c, err := ParseCardinality(node.Value)
		if err != nil {
			return dobee.NewRelationError(name, target, "unknown cardinality "+node.Value)
		}
		e.Relations = append(e.Relations, Relation{Target: target, Cardinality: c})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// eachPair walks a mapping node in document order. Absent nodes are skipped.
func eachPair(n *yaml.Node, fn func(string, *yaml.Node) error) error {
	if n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("dobee/schema: line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
