// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mjoris/plaquier/pkg/pagination"
)

// pageEnvelope is the structured variant of an inventory list response.
type pageEnvelope struct {
	Items    json.RawMessage `json:"items"`
	Total    *int            `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// DecodePage folds the inventory service's two list-response shapes — a bare
// JSON array or an {items,total,page,page_size} object — into one canonical
// page the moment it crosses the service boundary.
//
// # Fallbacks
//
// A bare array carries no paging metadata: the requested params supply page
// and limit, and total degrades to the item count. A page object missing its
// total behaves the same way.
func DecodePage[T any](body []byte, requested pagination.Params) ([]T, pagination.Meta, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")

	itemsRaw := json.RawMessage(trimmed)
	page := requested.Page
	limit := requested.Limit
	var total *int

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope pageEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("remote: malformed page envelope: %w", err)
		}
		itemsRaw = envelope.Items
		total = envelope.Total
		if envelope.Page > 0 {
			page = envelope.Page
		}
		if envelope.PageSize > 0 {
			limit = envelope.PageSize
		}
	}

	var items []T
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &items); err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("remote: malformed page items: %w", err)
		}
	}

	if total == nil {
		count := len(items)
		total = &count
	}

	return items, pagination.NewMeta(page, limit, *total), nil
}
