package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todolist/domain"
)

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, lists Lists, logger *log.Logger) {
	if e.Renderer == nil {
		e.Renderer = NewRenderer()
	}
	e.GET("/", home(lists, logger))
	e.GET("/about", about())
	e.GET("/healthz", healthz(lists, logger))
	e.GET("/:listName", customList(lists, logger))
	e.POST("/", addItem(lists, logger))
	e.POST("/delete", deleteItem(lists, logger))
}

func healthz(lists Lists, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := lists.DefaultList(c.Request().Context()); err != nil {
			logger.WithError(err).Warn("health check failed")
			return c.String(http.StatusServiceUnavailable, "storage unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}

func about() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, "about", nil)
	}
}

// home renders the default list. An empty collection is seeded and the
// client is redirected back, so the seeded items appear after the reload.
func home(lists Lists, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, http.MethodGet, "/")
		c.SetRequest(c.Request().WithContext(ctx))
		metrics.SetList(domain.DefaultListName)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		items, fetchErr := lists.DefaultList(ctx)
		metrics.ObserveStorage(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("fetch")
			logger.WithError(fetchErr).Error("failed to retrieve items")
			return c.String(http.StatusInternalServerError, "Error retrieving items.")
		}

		if len(items) == 0 {
			seedStart := time.Now()
			seedErr := lists.SeedDefaultList(ctx)
			metrics.ObserveStorage(time.Since(seedStart))
			if seedErr != nil {
				metrics.SetErrorStage("seed")
				logger.WithError(seedErr).Error("failed to save default items")
				return c.String(http.StatusInternalServerError, "Error saving default items.")
			}
			metrics.SetSeeded(true)
			return c.Redirect(http.StatusFound, "/")
		}

		metrics.SetItemsReturned(len(items))
		return c.Render(http.StatusOK, "list", listView{ListTitle: domain.DefaultListName, Items: items})
	}
}

func customList(lists Lists, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, http.MethodGet, "/:listName")
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		name := pathParam(c, "listName")
		metrics.SetList(domain.NormalizeListName(name))

		fetchStart := time.Now()
		list, resolveErr := lists.Resolve(ctx, name)
		metrics.ObserveStorage(time.Since(fetchStart))
		if resolveErr != nil {
			metrics.SetErrorStage("resolve")
			logger.WithError(resolveErr).WithField("list", name).Error("failed to resolve list")
			return c.String(http.StatusInternalServerError, "Error retrieving list.")
		}

		metrics.SetItemsReturned(len(list.Items))
		return c.Render(http.StatusOK, "list", listView{ListTitle: list.Name, Items: list.Items})
	}
}

// addItem appends the submitted item. Storage failures are logged and the
// client is redirected regardless.
func addItem(lists Lists, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, http.MethodPost, "/")
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		text := c.FormValue("newItem")
		listName := c.FormValue("list")
		metrics.SetList(listName)

		start := time.Now()
		if addErr := lists.AddItem(ctx, listName, text); addErr != nil {
			metrics.SetErrorStage("add")
			logger.WithError(addErr).WithField("list", listName).Error("failed to add item")
		}
		metrics.ObserveStorage(time.Since(start))
		return c.Redirect(http.StatusFound, domain.RedirectPath(listName))
	}
}

// deleteItem removes the checked item. Unknown IDs and storage failures
// still redirect back to the list.
func deleteItem(lists Lists, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, http.MethodPost, "/delete")
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		itemID := c.FormValue("checkbox")
		listName := c.FormValue("listName")
		metrics.SetList(listName)

		start := time.Now()
		if delErr := lists.DeleteItem(ctx, listName, itemID); delErr != nil {
			metrics.SetErrorStage("delete")
			logger.WithError(delErr).WithFields(log.Fields{"list": listName, "item": itemID}).Error("failed to delete item")
		}
		metrics.ObserveStorage(time.Since(start))
		return c.Redirect(http.StatusFound, domain.RedirectPath(listName))
	}
}

// pathParam returns the unescaped value of a path parameter.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
