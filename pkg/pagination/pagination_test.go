package pagination

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

func parse(t *testing.T, query string) (Params, error) {
	t.Helper()
	return FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/admin/funnel"+query, nil))
}

func TestFromRequest_Defaults(t *testing.T) {
	p, err := parse(t, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)
	assert.Zero(t, p.Offset())
}

func TestFromRequest_ExplicitPage(t *testing.T) {
	p, err := parse(t, "?page=3&per_page=50&stage=phone")
	require.NoError(t, err)
	assert.Equal(t, Params{Page: 3, PerPage: 50}, p)
	assert.Equal(t, 100, p.Offset())
}

func TestFromRequest_RejectsBadValues(t *testing.T) {
	for _, q := range []string{"?page=0", "?page=-2", "?page=two", "?per_page=0", "?per_page=101", "?per_page=1e3"} {
		t.Run(q, func(t *testing.T) {
			_, err := parse(t, q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultParams(), Params{}.Normalize())
	assert.Equal(t, Params{Page: 2, PerPage: MaxPerPage}, Params{Page: 2, PerPage: 5000}.Normalize())
	assert.Equal(t, 20, Params{Page: 2}.Offset())
}

func TestNewResult_PageMath(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		params    Params
		pages     int
		next, prv bool
	}{
		{"empty", 0, Params{Page: 1, PerPage: 10}, 0, false, false},
		{"exact fit", 20, Params{Page: 1, PerPage: 10}, 2, true, false},
		{"partial last page", 21, Params{Page: 3, PerPage: 10}, 3, false, true},
		{"middle", 45, Params{Page: 2, PerPage: 20}, 3, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := NewResult([]string{"a"}, tc.total, tc.params)
			assert.Equal(t, tc.pages, res.TotalPages)
			assert.Equal(t, tc.next, res.HasNext)
			assert.Equal(t, tc.prv, res.HasPrev)
			assert.Equal(t, tc.total, res.TotalCount)
		})
	}
}

func TestNewResult_NilDataIsEmptyList(t *testing.T) {
	res := NewResult[int](nil, 0, Params{})
	assert.NotNil(t, res.Data)
	assert.Equal(t, DefaultPerPage, res.PerPage)
}
