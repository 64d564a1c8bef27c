package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
)

type videoApi struct {
	svc video.Service
}

// Catalog management is restricted to content admins; learners read the
// catalog through the playlist endpoints instead.
func registerVideoAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc video.Service) {
	api := videoApi{svc: svc}

	vg := g.Group("/videos", jwt, adminMiddleware(user.RoleAdminOwner, user.RoleAdminContent))
	vg.POST("", api.create)
	vg.GET("", api.query)
	vg.DELETE("", api.destroyMultiple)

	og := vg.Group("/orders")
	og.GET("", api.queryOrders)
	og.PUT("", api.setOrder)

	dg := vg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *videoApi) create(ctx echo.Context) error {
	var data video.NewVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating video")
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *videoApi) query(ctx echo.Context) error {
	var filter *video.QueryFilter
	params := ctx.QueryParams()
	if len(params) > 0 {
		filter = &video.QueryFilter{
			Search:     ctx.QueryParam("search"),
			Categories: params["category"],
			IDs:        params["id"],
		}
	}

	videos, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	if videos == nil {
		videos = []video.Video{}
	}
	return ctx.JSON(http.StatusOK, videos)
}

func (api *videoApi) retrieve(ctx echo.Context) error {
	vid, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == video.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding video by ID")
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *videoApi) update(ctx echo.Context) error {
	var data video.UpdateVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVideo")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == video.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating video")
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *videoApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting videos")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) queryOrders(ctx echo.Context) error {
	orders, err := api.svc.CategoryOrders(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying category orders")
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *videoApi) setOrder(ctx echo.Context) error {
	var data video.CategoryOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CategoryOrder")
	}

	ord, err := api.svc.SetCategoryOrder(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting category order")
	}
	return ctx.JSON(http.StatusOK, ord)
}
