package cmdb

import (
	"context"
	"encoding/json"
)

// hostParams builds the fixed parameters shared by the host list APIs. A
// non-empty ipList becomes a host_property_filter restricting the result to
// hosts whose inner IP is in the list.
func hostParams(bizID int64, supplierAccount string, fields []string, ipList []string) map[string]any {
	if fields == nil {
		fields = []string{}
	}

	params := map[string]any{
		"bk_biz_id":           bizID,
		"bk_supplier_account": supplierAccount,
		"fields":              fields,
	}

	if len(ipList) > 0 {
		params["host_property_filter"] = map[string]any{
			"condition": "AND",
			"rules": []map[string]any{
				{"field": "bk_host_innerip", "operator": "in", "value": ipList},
			},
		}
	}

	return params
}

// GetBusinessHost returns the hosts of a business, optionally filtered by
// inner IP. An empty result means no hosts matched or the fetch failed; the
// failure, if any, has been logged by the batch fetcher.
func (s *Service) GetBusinessHost(ctx context.Context, bizID int64, supplierAccount string, fields []string, ipList []string) []Host {
	records := s.batchRequest(ctx, "list_biz_hosts", hostParams(bizID, supplierAccount, fields, ipList))

	hosts := make([]Host, 0, len(records))
	for _, raw := range records {
		var h Host
		if err := json.Unmarshal(raw, &h); err != nil {
			s.logger.Error().
				Err(err).
				Str("api", "list_biz_hosts").
				Msg("Malformed host record, discarding aggregation")
			return nil
		}
		hosts = append(hosts, h)
	}

	return hosts
}

// GetBusinessHostTopo returns the hosts of a business grouped with the
// modules and sets each host belongs to. The empty-result semantics match
// GetBusinessHost.
func (s *Service) GetBusinessHostTopo(ctx context.Context, bizID int64, supplierAccount string, fields []string, ipList []string) []HostTopo {
	records := s.batchRequest(ctx, "list_biz_hosts_topo", hostParams(bizID, supplierAccount, fields, ipList))

	groups := make([]HostTopo, 0, len(records))
	for _, raw := range records {
		var rec hostTopoRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Error().
				Err(err).
				Str("api", "list_biz_hosts_topo").
				Msg("Malformed host topo record, discarding aggregation")
			return nil
		}

		group := HostTopo{
			Host:    rec.Host,
			Modules: []Module{},
			Sets:    []Set{},
		}
		for _, parentSet := range rec.Topo {
			group.Sets = append(group.Sets, Set{SetID: parentSet.SetID, SetName: parentSet.SetName})
			group.Modules = append(group.Modules, parentSet.Modules...)
		}

		groups = append(groups, group)
	}

	return groups
}
