// Package api is the transport the model layer talks through. Gateway is the only
// surface the model package depends on; RestyGateway implements it over HTTP and
// MockGateway records calls for tests.
package api

import (
	"context"
	"net/url"
	"strconv"
)

// Gateway performs the four calls model definitions need. Paths are either relative
// to the API root ("/dataElements/abc") or absolute URLs, such as a model's href.
type Gateway interface {
	Get(ctx context.Context, path string, params Params) (map[string]any, error)
	Post(ctx context.Context, path string, body any) (map[string]any, error)
	Update(ctx context.Context, path string, body any) (map[string]any, error)
	Delete(ctx context.Context, path string) error
}

// Params are the query parameters of a GET request.
type Params struct {
	Fields string
	Filter []string
	// Page is omitted when zero.
	Page int
	// NoPaging asks the server to return every record in one response.
	NoPaging bool
}

// Values renders p as query values. Each filter clause becomes its own filter
// parameter, in order.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Fields != "" {
		v.Set("fields", p.Fields)
	}

	for _, clause := range p.Filter {
		v.Add("filter", clause)
	}

	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}

	if p.NoPaging {
		v.Set("paging", "false")
	}

	return v
}
