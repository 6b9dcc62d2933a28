package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core/school"
	"github.com/trezcool/schoolhub/services/directory"
)

func Test_schoolApi_search(t *testing.T) {
	env := setup(t)
	token := env.newVisitor(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		count   int
	}{
		{name: "all", query: "", wantIDs: []string{"s1", "s2", "s3"}, count: 3},
		{name: "city", query: "?city=pune", wantIDs: []string{"s1", "s2"}, count: 2},
		{name: "city & board", query: "?city=Pune&board=ICSE", wantIDs: []string{"s2"}, count: 1},
		{name: "text", query: "?q=%20oak%20", wantIDs: []string{"s3"}, count: 1},
		{name: "limit", query: "?limit=1&sort=-ratingAverage", wantIDs: []string{"s1"}, count: 3},
		{name: "none", query: "?city=Delhi", wantIDs: []string{}, count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/v1/schools"+tt.query, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var page directory.SchoolPage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
			assert.Equal(t, tt.wantIDs, school.IDs(page.Schools))
			assert.Equal(t, tt.count, page.Count)
		})
	}

	runHTTPTests(t, env, []httpTest{
		{name: "bad sort", path: "/v1/schools?sort=name", token: token, wantCode: http.StatusBadRequest},
		{name: "bad limit", path: "/v1/schools?limit=500", token: token, wantCode: http.StatusBadRequest},
		{name: "bad fee range", path: "/v1/schools?minFee=100&maxFee=10", token: token, wantCode: http.StatusBadRequest},
		{name: "not a number", path: "/v1/schools?page=two", token: token, wantCode: http.StatusBadRequest},
	})
}

func Test_schoolApi_get(t *testing.T) {
	env := setup(t)
	token := env.newVisitor(t)

	get := func() schoolResponse {
		rec := env.do(http.MethodGet, "/v1/schools/dps-pune", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res schoolResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		return res
	}

	res := get()
	assert.Equal(t, "s1", res.School.ID)
	assert.Equal(t, "DPS Pune", res.School.Name())
	assert.False(t, res.Comparing)
	assert.Equal(t, []string{"s2"}, school.IDs(res.Similar))

	raw, err := json.Marshal(res.School)
	require.NoError(t, err)
	rec := env.do(http.MethodPost, "/v1/compare", token, raw)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, get().Comparing)

	runHTTPTests(t, env, []httpTest{
		{
			name: "not found", path: "/v1/schools/nope", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "School not found"}),
		},
	})
}
