package schema

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrSchemaNotFound = errors.New("schema not found")

const attributesFile = "attributes.json"

// Source supplies schemas and the attribute list.
type Source interface {
	Schema(ctx context.Context, name string) (*Schema, error)
	Schemas(ctx context.Context) ([]*Schema, error)
	Attributes(ctx context.Context) ([]Attribute, error)
}

// DirSource reads <name>.json files from a directory. An attributes.json file, when
// present, holds the attribute list either bare or as {"attributes": [...]}.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Schema(_ context.Context, name string) (*Schema, error) {
	path := filepath.Join(s.Dir, name+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrSchemaNotFound, "%s in %s", name, s.Dir)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to read schema %s", path)
	}

	sch, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schema %s", path)
	}

	return sch, nil
}

func (s *DirSource) Schemas(ctx context.Context) ([]*Schema, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var schemas []*Schema
	for _, path := range paths {
		if filepath.Base(path) == attributesFile {
			continue
		}

		sch, err := s.Schema(ctx, strings.TrimSuffix(filepath.Base(path), ".json"))
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, sch)
	}

	return schemas, nil
}

func (s *DirSource) Attributes(_ context.Context) ([]Attribute, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, attributesFile))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to read attributes in %s", s.Dir)
	}

	return DecodeAttributes(data)
}

// DecodeAttributes accepts a bare JSON array or an {"attributes": [...]} envelope.
func DecodeAttributes(data []byte) ([]Attribute, error) {
	var attributes []Attribute
	if err := json.Unmarshal(data, &attributes); err == nil {
		return attributes, nil
	}

	var envelope struct {
		Attributes []Attribute `json:"attributes"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrap(err, "invalid attribute list")
	}

	return envelope.Attributes, nil
}
