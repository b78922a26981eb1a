package api

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/psdwalk/pkg/psd"
)

// openFunc decodes a document from a path. Swappable in tests.
type openFunc func(path string) (*psd.File, error)

type Server struct {
	store *DocumentStore
	open  openFunc
}

func NewServer(store *DocumentStore) *Server {
	if store == nil {
		store = NewDocumentStore(0)
	}
	return &Server{store: store, open: psd.Open}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/documents", s.handleOpenDocument)
	e.GET("/v1/documents", s.handleListDocuments)
	e.GET("/v1/documents/:id", s.handleGetDocument)
	e.GET("/v1/documents/:id/layers", s.handleLayers)
	e.GET("/v1/documents/:id/resources", s.handleResources)
	e.DELETE("/v1/documents/:id", s.handleCloseDocument)
}

func (s *Server) handleOpenDocument(c *echo.Context) error {
	var req OpenDocumentReq
	if err := decodeBody(c, &req); err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	if req.Path == "" {
		return writeBadRequest(c, "path is required")
	}

	f, err := s.open(req.Path)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, "decode_error", err.Error())
	}
	id := s.store.Add(req.Path, f)
	e, _ := s.store.Get(id)
	return writeJSON(c, http.StatusOK, summarize(id, e))
}

func (s *Server) handleListDocuments(c *echo.Context) error {
	list := DocumentList{Object: "list", Data: []DocumentSummary{}}
	for _, id := range s.store.List() {
		if e, ok := s.store.Get(id); ok {
			list.Data = append(list.Data, summarize(id, e))
		}
	}
	return writeJSON(c, http.StatusOK, list)
}

func (s *Server) handleGetDocument(c *echo.Context) error {
	id := c.Param("id")
	e, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "document not found: "+id)
	}
	return writeJSON(c, http.StatusOK, summarize(id, e))
}

func (s *Server) handleLayers(c *echo.Context) error {
	id := c.Param("id")
	e, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "document not found: "+id)
	}
	return writeJSON(c, http.StatusOK, LayerList{
		Object: "list",
		Data:   summarizeLayers(e.File.Document),
	})
}

func (s *Server) handleResources(c *echo.Context) error {
	id := c.Param("id")
	e, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "document not found: "+id)
	}
	return writeJSON(c, http.StatusOK, ResourceList{
		Object: "list",
		Data:   summarizeResources(e.File.Document),
	})
}

func (s *Server) handleCloseDocument(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Remove(id) {
		return writeNotFound(c, "document not found: "+id)
	}
	return writeJSON(c, http.StatusOK, CloseDocumentResp{
		ID:     id,
		Object: "document",
		Closed: true,
	})
}
