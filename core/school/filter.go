package school

import (
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
)

// Sort options offered by the schools list page.
const (
	SortNewest     = "-createdAt"
	SortBestRated  = "-ratingAverage"
	SortLowestFee  = "minFee"
	SortHighestFee = "-minFee"
)

// Filter holds the search parameters of the schools list.
type Filter struct {
	Query      string `query:"q" json:"q"`
	City       string `query:"city" json:"city"`
	Board      string `query:"board" json:"board"`
	MinFee     int    `query:"minFee" json:"minFee" validate:"gte=0"`
	MaxFee     int    `query:"maxFee" json:"maxFee" validate:"omitempty,gtefield=MinFee"`
	Facilities string `query:"facilities" json:"facilities"`
	Classes    string `query:"classes" json:"classes"`
	Sort       string `query:"sort" json:"sort" validate:"omitempty,oneof=-createdAt -ratingAverage minFee -minFee"`
	Featured   bool   `query:"featured" json:"featured"`
	Limit      int    `query:"limit" json:"limit" validate:"gte=0,lte=100"`
	Page       int    `query:"page" json:"page" validate:"gte=0"`
}

func (f *Filter) Clean() {
	f.Query = core.CleanString(f.Query)
	f.City = core.CleanString(f.City)
	f.Board = core.CleanString(f.Board)
	f.Facilities = core.CleanList(f.Facilities)
	f.Classes = core.CleanList(f.Classes)
	f.Sort = core.CleanString(f.Sort)
	if f.Sort == "" {
		f.Sort = SortNewest
	}
}

func (f *Filter) Validate(validate *validator.Validate) error {
	f.Clean()
	return validate.Struct(f)
}

// Values renders the filter as query parameters, omitting empty ones.
func (f Filter) Values() url.Values {
	v := make(url.Values)
	add := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	addInt := func(key string, val int) {
		if val > 0 {
			v.Set(key, strconv.Itoa(val))
		}
	}

	add("q", f.Query)
	add("city", f.City)
	add("board", f.Board)
	addInt("minFee", f.MinFee)
	addInt("maxFee", f.MaxFee)
	add("facilities", f.Facilities)
	add("classes", f.Classes)
	add("sort", f.Sort)
	if f.Featured {
		v.Set("featured", "true")
	}
	addInt("limit", f.Limit)
	addInt("page", f.Page)
	return v
}
