package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/school"
)

func registerSchoolAPI(g *echo.Group, s *server) {
	sg := g.Group("/schools")
	sg.GET("", s.searchSchools)
	sg.GET("/:slug", s.getSchool)
}

func (s *server) searchSchools(ctx echo.Context) error {
	var filter school.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	if err := filter.Validate(s.Validate); err != nil {
		return err
	}

	page, err := mustContextClient(ctx).dir.SearchSchools(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching schools")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (s *server) getSchool(ctx echo.Context) error {
	c := mustContextClient(ctx)
	rctx := ctx.Request().Context()

	sch, err := c.dir.GetSchool(rctx, ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "getting school")
	}

	similar, err := c.dir.SimilarSchools(rctx, sch.ID)
	if err != nil { // the page renders without them
		s.Logger.Warn("loading similar schools", errors.Wrap(err, "getting similar schools"))
		similar = []school.School{}
	}

	return ctx.JSON(http.StatusOK, schoolResponse{
		School:    sch,
		Comparing: c.compareStore().Contains(sch.ID),
		Similar:   similar,
	})
}
