package directory

import (
	"context"
	"net/url"

	"github.com/trezcool/schoolhub/core/school"
)

// SchoolPage is one page of search results.
type SchoolPage struct {
	Schools []school.School `json:"schools"`
	Count   int             `json:"count"`
}

func (c *Client) schools(ctx context.Context, path string, query url.Values) ([]school.School, error) {
	env, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	schools := make([]school.School, 0)
	if len(env.Data) == 0 {
		return schools, nil
	}
	if err = decodeData(env, &schools); err != nil {
		return nil, err
	}
	return schools, nil
}

func (c *Client) SearchSchools(ctx context.Context, filter school.Filter) (SchoolPage, error) {
	env, err := c.get(ctx, "/schools", filter.Values())
	if err != nil {
		return SchoolPage{}, err
	}
	page := SchoolPage{Schools: make([]school.School, 0), Count: env.Count}
	if len(env.Data) > 0 {
		if err = decodeData(env, &page.Schools); err != nil {
			return SchoolPage{}, err
		}
	}
	if page.Count == 0 {
		page.Count = len(page.Schools)
	}
	return page, nil
}

func (c *Client) GetSchool(ctx context.Context, slug string) (school.School, error) {
	env, err := c.get(ctx, "/schools/"+url.PathEscape(slug), nil)
	if err != nil {
		return school.School{}, err
	}
	var sch school.School
	if err = decodeData(env, &sch); err != nil {
		return school.School{}, err
	}
	return sch, nil
}

func (c *Client) SimilarSchools(ctx context.Context, id string) ([]school.School, error) {
	return c.schools(ctx, "/schools/"+url.PathEscape(id)+"/similar", nil)
}

// MySchools lists the schools managed by the logged in school admin.
func (c *Client) MySchools(ctx context.Context) ([]school.School, error) {
	return c.schools(ctx, "/schools/mine", nil)
}

// PendingSchools lists the schools awaiting a super admin's approval.
func (c *Client) PendingSchools(ctx context.Context) ([]school.School, error) {
	return c.schools(ctx, "/admin/schools/pending", nil)
}
