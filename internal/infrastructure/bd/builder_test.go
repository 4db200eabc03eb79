package db

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-system/pkg/types"
)

var testMap = map[string]string{
	"bank_id":    "o.bank_id",
	"created_at": "o.created_at",
}

func TestApplyListParams(t *testing.T) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	filter := types.Filter{
		Filter:         map[string]interface{}{"bank_id": "1,2", "unknown": "x"},
		Sort:           map[string]string{"created_at": "desc"},
		Limit:          10,
		Offset:         20,
		WithPagination: true,
	}

	query, args, err := ApplyListParams(psql.Select("o.id").From("orders o"), filter, testMap).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT o.id FROM orders o WHERE o.bank_id IN ($1,$2) ORDER BY o.created_at DESC LIMIT 10 OFFSET 20", query)
	assert.Equal(t, []interface{}{"1", "2"}, args)
}

func TestApplyListParams_CountFilter(t *testing.T) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	filter := types.Filter{
		Filter:         map[string]interface{}{"bank_id": "3"},
		Sort:           map[string]string{"created_at": "asc"},
		Limit:          10,
		WithPagination: true,
	}

	query, args, err := ApplyListParams(psql.Select("COUNT(*)").From("orders o"), CountFilter(filter), testMap).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM orders o WHERE o.bank_id = $1", query)
	assert.Equal(t, []interface{}{"3"}, args)
	assert.True(t, filter.WithPagination, "исходный фильтр не меняется")
}
