package school

import (
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
)

func newValidate() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestFilter_Validate(t *testing.T) {
	validate := newValidate()

	tests := []struct {
		name      string
		filter    Filter
		wantField string
	}{
		{name: "empty", filter: Filter{}},
		{name: "fee range", filter: Filter{MinFee: 1000, MaxFee: 5000}},
		{name: "max fee only", filter: Filter{MaxFee: 5000}},
		{name: "negative min fee", filter: Filter{MinFee: -1}, wantField: "minFee"},
		{name: "inverted fee range", filter: Filter{MinFee: 5000, MaxFee: 1000}, wantField: "maxFee"},
		{name: "unknown sort", filter: Filter{Sort: "name"}, wantField: "sort"},
		{name: "best rated", filter: Filter{Sort: SortBestRated}},
		{name: "limit too big", filter: Filter{Limit: 1000}, wantField: "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantField, vErrs[0].Field())
		})
	}
}

func TestFilter_Clean(t *testing.T) {
	f := Filter{Query: "  delhi public ", City: " Pune ", Facilities: " Library, ,Pool ,"}
	f.Clean()
	assert.Equal(t, "delhi public", f.Query)
	assert.Equal(t, "Pune", f.City)
	assert.Equal(t, "Library,Pool", f.Facilities)
	assert.Equal(t, SortNewest, f.Sort)
}

func TestFilter_Values(t *testing.T) {
	f := Filter{
		Query:      "dps",
		City:       "Pune",
		MaxFee:     50000,
		Facilities: "Library,Pool",
		Sort:       SortLowestFee,
		Featured:   true,
		Page:       2,
	}
	assert.Equal(t, url.Values{
		"q":          {"dps"},
		"city":       {"Pune"},
		"maxFee":     {"50000"},
		"facilities": {"Library,Pool"},
		"sort":       {"minFee"},
		"featured":   {"true"},
		"page":       {"2"},
	}, f.Values())

	assert.Empty(t, Filter{}.Values())
}
