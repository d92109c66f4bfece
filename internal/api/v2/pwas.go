package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// initPWARoutes registers the saved-record endpoints. Ownership is decided by
// the records service from the caller in the request context.
func (c *Controller) initPWARoutes() {
	pwas := c.Group.Group("/pwas")
	pwas.GET("", c.ListPWAs)
	pwas.POST("", c.CreatePWA)
	pwas.GET("/:id", c.GetPWA)
	pwas.PATCH("/:id", c.UpdatePWA)
	pwas.DELETE("/:id", c.DeletePWA)
}

// CreatePWA stores the posted configuration for the caller.
func (c *Controller) CreatePWA(ctx echo.Context) error {
	if err := c.records.RequireCaller(ctx.Request().Context(), "create"); err != nil {
		return c.HandleError(ctx, err, "Failed to save app", http.StatusUnauthorized)
	}

	cfg, err := c.bindConfig(ctx)
	if err != nil {
		return c.bindError(ctx, err)
	}

	rec, err := c.records.Create(ctx.Request().Context(), cfg)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to save app", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, rec)
}

// ListPWAs returns the caller's saved apps, newest first. Anonymous callers
// get an empty list.
func (c *Controller) ListPWAs(ctx echo.Context) error {
	recs, err := c.records.List(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list apps", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"pwas":  recs,
		"count": len(recs),
	})
}

// GetPWA returns any saved app by ID.
func (c *Controller) GetPWA(ctx echo.Context) error {
	rec, err := c.records.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get app", http.StatusInternalServerError)
	}
	if rec == nil {
		return c.notFound(ctx, "App not found")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// UpdatePWA applies the non-empty fields of the posted configuration to an
// app the caller owns.
func (c *Controller) UpdatePWA(ctx echo.Context) error {
	if err := c.records.RequireCaller(ctx.Request().Context(), "update"); err != nil {
		return c.HandleError(ctx, err, "Failed to update app", http.StatusUnauthorized)
	}

	var patch pwa.Config
	if err := ctx.Bind(&patch); err != nil {
		return c.bindError(ctx, err)
	}
	// A patch may omit the name.
	if err := c.validate.StructExcept(patch, "Name"); err != nil {
		return c.bindError(ctx, err)
	}

	id := ctx.Param("id")
	rec, err := c.records.Update(ctx.Request().Context(), id, patch)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to update app", http.StatusInternalServerError)
	}
	if rec == nil {
		return c.notFound(ctx, "App not found")
	}
	c.hosted.invalidate(id)
	return ctx.JSON(http.StatusOK, rec)
}

// DeletePWA removes an app the caller owns and reports whether anything was
// removed.
func (c *Controller) DeletePWA(ctx echo.Context) error {
	id := ctx.Param("id")
	deleted := c.records.Delete(ctx.Request().Context(), id)
	if deleted {
		c.hosted.invalidate(id)
		c.logInfoIfEnabled("app deleted", logger.String("id", id))
	}
	return ctx.JSON(http.StatusOK, map[string]bool{"deleted": deleted})
}
