package cmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBusinessNotUnique is returned when a business lookup does not resolve
// to exactly one business.
var ErrBusinessNotUnique = errors.New("business lookup did not return exactly one business")

// roleFields maps notification receiver groups to the business role fields
// holding their members.
var roleFields = map[string]func(*Business) string{
	"Maintainers": func(b *Business) string { return b.Maintainer },
	"ProductPm":   func(b *Business) string { return b.Productor },
	"Developer":   func(b *Business) string { return b.Developer },
	"Tester":      func(b *Business) string { return b.Tester },
	"Operator":    func(b *Business) string { return b.Operator },
}

// GetNotifyReceivers resolves the final notification recipients for a
// business. Members of each receiver group are read from the business record
// in the CMDB and merged with the explicit moreReceivers list (comma
// separated); the merged set is deduplicated and sorted. With no receiver
// groups the explicit list is returned as-is, without a CMDB lookup.
func (s *Service) GetNotifyReceivers(ctx context.Context, bizID int64, supplierAccount string, receiverGroups []string, moreReceivers string) (string, error) {
	more := splitReceivers(moreReceivers)
	if len(receiverGroups) == 0 {
		return strings.Join(more, ","), nil
	}

	params := map[string]any{
		"bk_supplier_account": supplierAccount,
		"condition": map[string]any{
			"bk_biz_id": bizID,
		},
	}

	var resp Response
	if err := s.client.Call(ctx, "search_business", params, &resp); err != nil {
		return "", fmt.Errorf("search business %d: %w", bizID, err)
	}

	if !resp.Result {
		s.logger.Error().
			Str("api", "search_business").
			Int64("biz_id", bizID).
			Int("code", resp.Code).
			Str("message", resp.Message).
			Msg("Business lookup failed")
		return "", fmt.Errorf("search business %d: %s (code %d)", bizID, resp.Message, resp.Code)
	}

	if resp.Data.Count != 1 || len(resp.Data.Info) != 1 {
		s.logger.Error().
			Str("api", "search_business").
			Int64("biz_id", bizID).
			Int("count", resp.Data.Count).
			Msg("Business lookup not unique")
		return "", fmt.Errorf("%w: biz %d matched %d businesses", ErrBusinessNotUnique, bizID, resp.Data.Count)
	}

	var biz Business
	if err := json.Unmarshal(resp.Data.Info[0], &biz); err != nil {
		return "", fmt.Errorf("decode business %d: %w", bizID, err)
	}

	receivers := make([]string, 0, len(more)+8)
	for _, group := range receiverGroups {
		field, ok := roleFields[group]
		if !ok {
			return "", fmt.Errorf("unknown receiver group %q", group)
		}
		receivers = append(receivers, splitReceivers(field(&biz))...)
	}
	receivers = append(receivers, more...)

	seen := make(map[string]struct{}, len(receivers))
	unique := make([]string, 0, len(receivers))
	for _, name := range receivers {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	sort.Strings(unique)

	return strings.Join(unique, ","), nil
}

// splitReceivers splits a comma-separated name list, trimming whitespace and
// dropping blanks.
func splitReceivers(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
