package schema

import (
	"context"
	"net/http"

	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/decoder"
	"github.com/pkg/errors"
)

// APISource reads schemas from the server's /schemas and /attributes endpoints.
// Every call goes to the server.
type APISource struct {
	gw api.Gateway
}

func NewAPISource(gw api.Gateway) *APISource {
	return &APISource{gw: gw}
}

func (s *APISource) Schema(ctx context.Context, name string) (*Schema, error) {
	body, err := s.gw.Get(ctx, "/schemas/"+name, api.Params{Fields: ":all"})
	if err != nil {
		var respErr *api.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(ErrSchemaNotFound, "%s: %s", name, respErr.Message)
		}
		return nil, errors.Wrapf(err, "unable to retrieve schema %s", name)
	}

	return FromMap(body)
}

func (s *APISource) Schemas(ctx context.Context) ([]*Schema, error) {
	body, err := s.gw.Get(ctx, "/schemas", api.Params{Fields: ":all"})
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve schemas")
	}

	items, _ := body["schemas"].([]any)
	schemas := make([]*Schema, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		sch, err := FromMap(m)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, sch)
	}

	return schemas, nil
}

func (s *APISource) Attributes(ctx context.Context) ([]Attribute, error) {
	body, err := s.gw.Get(ctx, "/attributes", api.Params{Fields: ":all", NoPaging: true})
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve attributes")
	}

	items, _ := body["attributes"].([]any)
	return decoder.DecodeSlice[Attribute](items)
}
