// handlers_resource.go - Resource store and shape catalog handlers
package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
)

// ResourceHandlerImpl implements the ResourceHandler interface
type ResourceHandlerImpl struct {
	resources   resource.Store
	shapes      *resource.Catalog
	catalogPath string

	// catalogMu serializes writes of the catalog file
	catalogMu sync.Mutex
}

// NewResourceHandler creates a new resource handler. Registered shapes are
// written back to catalogPath unless it is empty.
func NewResourceHandler(resources resource.Store, shapes *resource.Catalog, catalogPath string) ResourceHandler {
	if shapes == nil {
		shapes = resource.NewCatalog()
	}
	return &ResourceHandlerImpl{
		resources:   resources,
		shapes:      shapes,
		catalogPath: catalogPath,
	}
}

// HandlePutResource stores the request body under the path after /api/resources/.
// The Content-Type header is kept unless it is missing or generic.
func (h *ResourceHandlerImpl) HandlePutResource(c echo.Context) error {
	p := c.Param("*")
	if p == "" {
		return NewValidationError("path")
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read resource body", err)
	}
	if len(data) == 0 {
		return NewValidationError("body")
	}

	mimeType := c.Request().Header.Get(echo.HeaderContentType)
	if mimeType == echo.MIMEOctetStream {
		mimeType = ""
	}

	info, err := h.resources.Put(c.Request().Context(), p, data, mimeType)
	if err != nil {
		return mapError(err, "resource path")
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleGetResource returns the resource bytes with their mime type
func (h *ResourceHandlerImpl) HandleGetResource(c echo.Context) error {
	p := c.Param("*")
	if p == "" {
		return h.HandleListResources(c)
	}

	r, err := h.resources.Get(c.Request().Context(), p)
	if err != nil {
		return mapError(err, "resource "+p)
	}
	return c.Blob(http.StatusOK, r.MimeType, r.Data)
}

// HandleListResources lists resources below the optional prefix query parameter
func (h *ResourceHandlerImpl) HandleListResources(c echo.Context) error {
	list, err := h.resources.List(c.Request().Context(), c.QueryParam("prefix"))
	if err != nil {
		return mapError(err, "resource prefix")
	}
	if list == nil {
		list = []models.ResourceInfo{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleDeleteResource removes one resource
func (h *ResourceHandlerImpl) HandleDeleteResource(c echo.Context) error {
	p := c.Param("*")
	if p == "" {
		return NewValidationError("path")
	}
	if err := h.resources.Delete(c.Request().Context(), p); err != nil {
		return mapError(err, "resource "+p)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetShapes returns the shape catalog sorted by path
func (h *ResourceHandlerImpl) HandleGetShapes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.shapes.Definitions())
}

// HandleRegisterShape adds or replaces one shape definition and persists the catalog
func (h *ResourceHandlerImpl) HandleRegisterShape(c echo.Context) error {
	var def models.ShapeDefinition
	if err := c.Bind(&def); err != nil {
		return NewBadRequestError("invalid shape definition", err)
	}
	if strings.TrimSpace(def.Path) == "" {
		return NewValidationError("path")
	}
	if err := h.shapes.Register(def); err != nil {
		return NewBadRequestError("invalid shape definition", err)
	}
	if err := h.saveCatalog(); err != nil {
		return NewInternalError("failed to save shape catalog", err)
	}
	return c.JSON(http.StatusCreated, h.shapes.Definitions())
}

// saveCatalog rewrites the catalog file through a temp file in the same directory.
func (h *ResourceHandlerImpl) saveCatalog() error {
	if h.catalogPath == "" {
		return nil
	}
	h.catalogMu.Lock()
	defer h.catalogMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.catalogPath), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.catalogPath), ".shapes-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := h.shapes.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), h.catalogPath); err != nil {
		return fmt.Errorf("replace %s: %w", h.catalogPath, err)
	}
	fmt.Printf("[API] Saved %d shapes to %s\n", h.shapes.Len(), h.catalogPath)
	return nil
}
