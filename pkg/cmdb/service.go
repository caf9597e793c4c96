package cmdb

import (
	"context"
	"encoding/json"

	"github.com/Sternrassler/cmdb-inventory-client/pkg/batch"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service exposes the CMDB inventory operations.
type Service struct {
	client *client.Client
	batch  batch.Config
	logger zerolog.Logger
}

// NewService creates a service on top of the given ESB client. batchCfg
// controls page size and fan-out for the paginated list APIs; use
// batch.DefaultConfig() unless the deployment needs different bounds.
func NewService(c *client.Client, batchCfg batch.Config) *Service {
	return &Service{
		client: c,
		batch:  batchCfg,
		logger: log.With().Str("component", "cmdb").Logger(),
	}
}

// defaultExtractors read the standard CMDB success envelope: the result
// flag, the total count at data.count, and the item list at data.info.
var defaultExtractors = batch.Extractors[*Response, json.RawMessage]{
	OK:    func(r *Response) bool { return r != nil && r.Result },
	Count: func(r *Response) int { return r.Data.Count },
	Items: func(r *Response) []json.RawMessage { return r.Data.Info },
}

// batchRequest aggregates every record of a paginated CMDB list API. The
// fixed params are merged with the page window of each request. An empty
// result means either zero records or a failed fetch (logged by the batch
// fetcher).
func (s *Service) batchRequest(ctx context.Context, api string, params map[string]any) []json.RawMessage {
	call := func(ctx context.Context, w batch.Window) (*Response, error) {
		req := make(map[string]any, len(params)+1)
		for k, v := range params {
			req[k] = v
		}
		req["page"] = w

		var resp Response
		if err := s.client.Call(ctx, api, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	return batch.NewFetcher(api, call, defaultExtractors, s.batch).FetchAll(ctx)
}
