// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mjoris/plaquier/pkg/pagination"
)

/*
TestNewMeta_TotalPages verifies the ceiling division, including the
degenerate empty collection which still counts as one page.
*/
func TestNewMeta_TotalPages(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		limit      int
		totalPages int
	}{
		{"empty_collection", 0, 10, 1},
		{"single_partial_page", 3, 10, 1},
		{"exact_fit", 20, 10, 2},
		{"remainder_rolls_over", 23, 10, 3},
		{"limit_one", 5, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := pagination.NewMeta(1, tt.limit, tt.total)
			assert.Equal(t, tt.totalPages, meta.TotalPages)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}

/*
TestFromRequest_Clamping verifies defaulting and clamping of query params.
*/
func TestFromRequest_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		page  int
		limit int
	}{
		{"defaults", "/conceptions", pagination.DefaultPage, pagination.DefaultLimit},
		{"explicit", "/conceptions?page=3&limit=25", 3, 25},
		{"negative_page", "/conceptions?page=-1", pagination.DefaultPage, pagination.DefaultLimit},
		{"excessive_limit", "/conceptions?limit=9999", pagination.DefaultPage, pagination.DefaultLimit},
		{"garbage_values", "/conceptions?page=abc&limit=xyz", pagination.DefaultPage, pagination.DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", tt.url, nil)
			params := pagination.FromRequest(request)
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.limit, params.Limit)
		})
	}
}

/*
TestParams_Offset checks the offset math for the first and later pages.
*/
func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, pagination.Params{Page: 3, Limit: 10}.Offset())
}
