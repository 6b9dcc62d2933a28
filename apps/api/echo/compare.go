package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/school"
)

func registerCompareAPI(g *echo.Group, s *server) {
	cg := g.Group("/compare")
	cg.GET("", s.listCompared)
	cg.GET("/table", s.compareTable)
	cg.POST("", s.addCompared)
	cg.DELETE("", s.clearCompared)
	cg.DELETE("/:id", s.removeCompared)
}

func (s *server) listCompared(ctx echo.Context) error {
	store := mustContextClient(ctx).compareStore()
	return ctx.JSON(http.StatusOK, newCompareResponse(store.List()))
}

func (s *server) compareTable(ctx echo.Context) error {
	store := mustContextClient(ctx).compareStore()
	return ctx.JSON(http.StatusOK, compare.BuildTable(store.List()))
}

// addCompared takes the school as the client got it from the directory.
func (s *server) addCompared(ctx echo.Context) error {
	var sch school.School
	if err := json.NewDecoder(ctx.Request().Body).Decode(&sch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid school").SetInternal(err)
	}

	store := mustContextClient(ctx).compareStore()
	if err := store.Add(sch); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newCompareResponse(store.List()))
}

func (s *server) removeCompared(ctx echo.Context) error {
	store := mustContextClient(ctx).compareStore()
	store.Remove(ctx.Param("id"))
	return ctx.JSON(http.StatusOK, newCompareResponse(store.List()))
}

func (s *server) clearCompared(ctx echo.Context) error {
	store := mustContextClient(ctx).compareStore()
	store.Clear()
	return ctx.JSON(http.StatusOK, newCompareResponse(store.List()))
}
