package utils

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

func TestParseFilterFromQuery(t *testing.T) {
	values, _ := url.ParseQuery("limit=10&page=3&search=+Рудаки+&sort[created_at]=DESC&sort[id]=up&filter[bank_id]=2&courier_id[]=5&courier_id[]=6&status=")
	f := ParseFilterFromQuery(values)

	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 20, f.Offset)
	assert.True(t, f.WithPagination)
	assert.Equal(t, "Рудаки", f.Search)
	assert.Equal(t, map[string]string{"created_at": "desc"}, f.Sort)
	assert.Equal(t, "2", f.Filter["bank_id"])
	assert.Equal(t, "5,6", f.Filter["courier_id"])
	assert.NotContains(t, f.Filter, "status")
}

func TestParseFilterFromQuery_Defaults(t *testing.T) {
	values, _ := url.ParseQuery("per_page=9999&offset=1000&withPagination=false")
	f := ParseFilterFromQuery(values)

	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 1000, f.Offset)
	assert.Equal(t, 3, f.Page)
	assert.False(t, f.WithPagination)

	f = ParseFilterFromQuery(url.Values{})
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, 1, f.Page)
	assert.Zero(t, f.Offset)
}

func TestParseUint64List(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 30}, ParseUint64List("1, 2,x,30"))
	assert.Empty(t, ParseUint64List(""))
}

func TestValidateNumericFilters(t *testing.T) {
	ok := types.Filter{Filter: map[string]interface{}{"bank_id": "1,2", "order_status_id": "3", "status": "abc"}}
	assert.NoError(t, ValidateNumericFilters(ok, "bank_id", "order_status_id"))

	bad := types.Filter{Filter: map[string]interface{}{"bank_id": "abc", "order_status_id": "1,x"}}
	err := ValidateNumericFilters(bad, "bank_id", "order_status_id")
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Code)
	assert.Contains(t, httpErr.Message, "bank_id")
	fields := httpErr.Details.(map[string]interface{})["errors"].(map[string][]string)
	assert.Contains(t, fields, "bank_id")
	assert.Contains(t, fields, "order_status_id")
}
