package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/dreamcatcher-tech/recorder/pkg/room"
	"github.com/dreamcatcher-tech/recorder/pkg/storage"
)

type catalogController struct {
	store   storage.Store
	service room.Service
}

func NewCatalogController(store storage.Store, service room.Service) catalogController {
	return catalogController{store, service}
}

var ErrNoFile = errors.New("no file uploaded")

// ListFiles queries the store fresh on every call. Catalogs are small,
// so correctness wins over latency.
func (cc *catalogController) ListFiles(c echo.Context) error {
	objects, err := cc.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, objects)
}

// Upload stores one recording under its original filename and then
// tells every subscriber to re-query the catalog. The notification is
// best-effort: once the object is committed, a publish failure is
// logged and the caller still sees success.
func (cc *catalogController) Upload(c echo.Context) error {
	// Bind request data
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrNoFile)
	}
	file, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	defer file.Close()

	// The reference timestamp travels as object metadata so downstream
	// consumers can compute each recording's offset from the nominal
	// session start
	metadata := map[string]string{
		"startTimestamp": c.FormValue("startTimestamp"),
	}

	// Call store
	contentType := header.Header.Get(echo.HeaderContentType)
	err = cc.store.Put(c.Request().Context(), header.Filename, file, contentType, metadata)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	// Notify subscribers
	if err = cc.service.NotifyFilesUpdated(c.Request().Context()); err != nil {
		log.Errorf("cannot notify files updated | error: %v, key: %s", err, header.Filename)
	}

	// Return success
	return c.NoContent(http.StatusOK)
}

// Download streams one stored object back with its original content
// type. A missing key and a store error both collapse to not found.
func (cc *catalogController) Download(c echo.Context) error {
	key := c.Param("key")
	body, contentType, err := cc.store.Get(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, storage.ErrNotFound)
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, body)
}
