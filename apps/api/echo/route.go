package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/auth"
)

func registerRouteAPI(g *echo.Group, s *server) {
	g.GET("/routes/resolve", s.resolveRoute)

	// private pages
	g.GET("/dashboard", s.dashboard, guardMiddleware())
	g.GET("/admin/schools", s.adminSchools, guardMiddleware(auth.RoleSchoolAdmin))
	g.GET("/superadmin/schools/pending", s.pendingSchools, guardMiddleware(auth.RoleSuperAdmin))
}

// resolveRoute tells whether the visitor may open the page at ?path=.
func (s *server) resolveRoute(ctx echo.Context) error {
	path := ctx.QueryParam("path")
	if path == "" {
		return errMissingPath
	}

	usr, ok := mustContextClient(ctx).session.Current()
	route, dec, err := auth.Resolve(path, usr, ok)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resolveResponse{Route: route, Decision: dec})
}

func (s *server) dashboard(ctx echo.Context) error {
	c := mustContextClient(ctx)
	usr, _ := c.session.Current()
	return ctx.JSON(http.StatusOK, dashboardResponse{User: usr, Compare: c.compareStore().List()})
}

func (s *server) adminSchools(ctx echo.Context) error {
	schools, err := mustContextClient(ctx).dir.MySchools(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting admin schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (s *server) pendingSchools(ctx echo.Context) error {
	schools, err := mustContextClient(ctx).dir.PendingSchools(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting pending schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}
