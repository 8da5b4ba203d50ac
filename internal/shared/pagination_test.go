package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klarity-app/klarity/internal/shared"
	_ "github.com/klarity-app/klarity/testing"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name               string
		page, limit, total int
		want               shared.Pagination
	}{
		{"defaults", 0, 0, 25, shared.Pagination{Page: 1, Limit: 10, Total: 25, Pages: 3}},
		{"exact fit", 1, 5, 10, shared.Pagination{Page: 1, Limit: 5, Total: 10, Pages: 2}},
		{"partial last page", 2, 10, 15, shared.Pagination{Page: 2, Limit: 10, Total: 15, Pages: 2}},
		{"empty set", 1, 10, 0, shared.Pagination{Page: 1, Limit: 10, Total: 0, Pages: 0}},
		{"negative inputs", -3, -1, 7, shared.Pagination{Page: 1, Limit: 10, Total: 7, Pages: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shared.NewPagination(tc.page, tc.limit, tc.total))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, shared.Pagination{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 10, shared.Pagination{Page: 2, Limit: 10}.Offset())
	assert.Equal(t, 40, shared.Pagination{Page: 5, Limit: 10}.Offset())
}
