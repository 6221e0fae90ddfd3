package model

import (
	"context"
	"fmt"

	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/decoder"
)

// Pager is the paging block of a list response.
type Pager struct {
	Page      int    `json:"page" yaml:"page"`
	PageCount int    `json:"pageCount" yaml:"pageCount"`
	Total     int    `json:"total" yaml:"total"`
	PageSize  int    `json:"pageSize" yaml:"pageSize"`
	NextPage  string `json:"nextPage,omitempty" yaml:"nextPage,omitempty"`
	PrevPage  string `json:"prevPage,omitempty" yaml:"prevPage,omitempty"`
}

// Collection is one list response: the models in server order and the pager.
// It keeps the request parameters it was listed with so paging repeats the same
// query.
type Collection struct {
	def    Definition
	params api.Params
	models []*Model
	pager  Pager
}

func newCollection(def Definition, params api.Params, body map[string]any) (*Collection, error) {
	c := &Collection{def: def, params: params}

	if raw, ok := body["pager"].(map[string]any); ok {
		pager, err := decoder.DecodeMap[Pager](raw)
		if err != nil {
			return nil, fmt.Errorf("invalid pager in %s response: %w", def.Plural(), err)
		}
		c.pager = pager
	}

	items, _ := body[def.Plural()].([]any)
	c.models = make([]*Model, 0, len(items))
	for i, item := range items {
		values, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is %T, not an object", def.Plural(), i, item)
		}
		c.models = append(c.models, newModel(def, values))
	}

	return c, nil
}

func (c *Collection) Definition() Definition {
	return c.def
}

func (c *Collection) Len() int {
	return len(c.models)
}

// Models returns the models in server order. The slice is a copy.
func (c *Collection) Models() []*Model {
	return append([]*Model(nil), c.models...)
}

func (c *Collection) At(i int) *Model {
	return c.models[i]
}

func (c *Collection) Pager() Pager {
	return c.pager
}

func (c *Collection) IDs() []string {
	ids := make([]string, 0, len(c.models))
	for _, m := range c.models {
		ids = append(ids, m.ID())
	}
	return ids
}

func (c *Collection) HasNextPage() bool {
	return c.pager.Page > 0 && c.pager.Page < c.pager.PageCount
}

func (c *Collection) HasPrevPage() bool {
	return c.pager.Page > 1
}

// NextPage lists the page after this one with the same query, including the id
// filter of a GetMany result.
func (c *Collection) NextPage(ctx context.Context) (*Collection, error) {
	if !c.HasNextPage() {
		return nil, fmt.Errorf("%w: after %d of %d", ErrNoPage, c.pager.Page, c.pager.PageCount)
	}
	return c.page(ctx, c.pager.Page+1)
}

func (c *Collection) PrevPage(ctx context.Context) (*Collection, error) {
	if !c.HasPrevPage() {
		return nil, fmt.Errorf("%w: before %d", ErrNoPage, c.pager.Page)
	}
	return c.page(ctx, c.pager.Page-1)
}

func (c *Collection) page(ctx context.Context, page int) (*Collection, error) {
	params := c.params
	params.Filter = append([]string(nil), c.params.Filter...)
	params.Page = page
	return c.def.modelDefinition().list(ctx, params)
}
