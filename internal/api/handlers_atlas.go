// handlers_atlas.go - Saved atlas archive handlers
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
	"github.com/rpgmapper/backend/internal/session"
	"github.com/rpgmapper/backend/internal/storage"
)

// DefaultRecentLimit is the number of archives listed when no limit is configured.
const DefaultRecentLimit = 20

// AtlasFileHandlerImpl implements the AtlasFileHandler interface
type AtlasFileHandlerImpl struct {
	store       storage.Store
	resources   resource.Store
	sessionMgr  *session.Manager
	codec       archive.Codec
	recentLimit int
}

// NewAtlasFileHandler creates a new atlas archive handler. A nil codec saves JSON documents.
func NewAtlasFileHandler(store storage.Store, resources resource.Store, sessionMgr *session.Manager, codec archive.Codec, recentLimit int) AtlasFileHandler {
	if codec == nil {
		codec = archive.JSONCodec{}
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &AtlasFileHandlerImpl{
		store:       store,
		resources:   resources,
		sessionMgr:  sessionMgr,
		codec:       codec,
		recentLimit: recentLimit,
	}
}

// HandleSaveSession packs the session's atlas and its resources into an
// archive and stores it. A session loaded from or saved to an archive
// overwrites it unless asNew is set.
func (h *AtlasFileHandlerImpl) HandleSaveSession(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}

	var req saveSessionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
	}

	ctx := c.Request().Context()
	var (
		saved   *models.AtlasFileInfo
		missing []string
	)
	info, err := s.Save(func(doc models.AtlasDoc, fileID string) (string, error) {
		if req.AsNew {
			fileID = ""
		}
		fi, miss, err := h.persist(ctx, doc, fileID, req.Name)
		if err != nil {
			return "", err
		}
		saved, missing = fi, miss
		return fi.ID, nil
	})
	if err != nil {
		return mapError(err, "atlas archive")
	}
	info.Current = h.sessionMgr.IsCurrent(s.ID)

	if len(missing) > 0 {
		fmt.Printf("[API] Saved %s without %d missing resources\n", saved.ID, len(missing))
	}
	return c.JSON(http.StatusOK, models.SaveResult{
		File:             saved,
		Session:          info,
		MissingResources: missing,
	})
}

func (h *AtlasFileHandlerImpl) persist(ctx context.Context, doc models.AtlasDoc, fileID, name string) (*models.AtlasFileInfo, []string, error) {
	a, missing, err := archive.Pack(ctx, doc, h.resources)
	if err != nil {
		return nil, nil, err
	}
	data, err := archive.Encode(a, h.codec)
	if err != nil {
		return nil, nil, err
	}

	meta := models.AtlasFileInfo{Name: name, AtlasName: doc.Name, Codec: h.codec.Name()}
	if fileID != "" {
		fi, err := h.store.Overwrite(fileID, meta, bytes.NewReader(data))
		if err == nil {
			return fi, missing, nil
		}
		if !errors.Is(err, storage.ErrFileNotFound) {
			return nil, nil, err
		}
		// The archive was deleted since it was loaded
	}
	fi, err := h.store.Save(meta, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return fi, missing, nil
}

// HandleLoadAtlas opens a stored archive in a new current session and
// imports its resources into the resource store.
func (h *AtlasFileHandlerImpl) HandleLoadAtlas(c echo.Context) error {
	id := c.Param("fileId")
	if id == "" {
		return NewValidationError("fileId")
	}

	path, err := h.store.GetFilePath(id)
	if err != nil {
		return NewNotFoundError("atlas file", id)
	}
	a, err := readArchive(path)
	if err != nil {
		return mapError(err, "atlas archive")
	}

	loaded, err := atlas.FromDocument(a.Document)
	if err != nil {
		return mapError(err, "atlas archive")
	}
	if err := archive.Unpack(c.Request().Context(), a, h.resources); err != nil {
		return mapError(err, "atlas resources")
	}

	s, err := h.sessionMgr.Adopt(loaded, id)
	if err != nil {
		return mapError(err, "session")
	}
	return c.JSON(http.StatusCreated, sessionInfo(h.sessionMgr, s))
}

func readArchive(path string) (archive.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return archive.Archive{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return archive.Archive{}, err
	}
	a, _, err := archive.Read(f, st.Size())
	return a, err
}

// HandleUploadAtlas accepts an archive as multipart/form-data and stores it
// after checking that it decodes.
func (h *AtlasFileHandlerImpl) HandleUploadAtlas(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}
	a, manifest, err := archive.Decode(data)
	if err != nil {
		return mapError(err, "atlas archive")
	}
	if _, err := atlas.FromDocument(a.Document); err != nil {
		return mapError(err, "atlas archive")
	}

	info, err := h.store.Save(models.AtlasFileInfo{
		Name:      file.Filename,
		AtlasName: a.Document.Name,
		Codec:     manifest.Codec,
	}, bytes.NewReader(data))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentAtlases returns the most recently saved archives
func (h *AtlasFileHandlerImpl) HandleGetRecentAtlases(c echo.Context) error {
	files, err := h.store.List(h.recentLimit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.AtlasFileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetAtlasFile returns metadata for a specific archive
func (h *AtlasFileHandlerImpl) HandleGetAtlasFile(c echo.Context) error {
	id := c.Param("fileId")
	if id == "" {
		return NewValidationError("fileId")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("atlas file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDownloadAtlas sends the archive bytes
func (h *AtlasFileHandlerImpl) HandleDownloadAtlas(c echo.Context) error {
	id := c.Param("fileId")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("atlas file", id)
	}
	path, err := h.store.GetFilePath(id)
	if err != nil {
		return NewNotFoundError("atlas file", id)
	}
	return c.Attachment(path, info.Name)
}

// HandleDeleteAtlasFile deletes a stored archive. Sessions loaded from it keep
// their atlas and save to a new archive next time.
func (h *AtlasFileHandlerImpl) HandleDeleteAtlasFile(c echo.Context) error {
	id := c.Param("fileId")
	if id == "" {
		return NewValidationError("fileId")
	}

	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("atlas file", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleRenameAtlasFile updates the display name of an archive
func (h *AtlasFileHandlerImpl) HandleRenameAtlasFile(c echo.Context) error {
	id := c.Param("fileId")
	if id == "" {
		return NewValidationError("fileId")
	}

	var req renameFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return NewNotFoundError("atlas file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// Request/Response types

type saveSessionRequest struct {
	Name  string `json:"name"`
	AsNew bool   `json:"asNew"`
}

type renameFileRequest struct {
	Name string `json:"name"`
}

func (r *renameFileRequest) validate() error {
	if !atlas.IsValidName(r.Name) {
		return NewValidationError("name")
	}
	return nil
}
