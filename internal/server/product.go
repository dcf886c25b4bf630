package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/tsfshop/storefront/internal/catalog/domain"
)

func (s *Server) ListProducts(c *gin.Context) {
	products, err := s.catalogSvc.ListPublic(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) AdminListProducts(c *gin.Context) {
	products, err := s.catalogSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) AdminCreateProduct(c *gin.Context) {
	var req catalogdomain.ProductInput
	if err := bindRequiredJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	product, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "product": product})
}

func (s *Server) AdminUpdateProduct(c *gin.Context) {
	var req catalogdomain.ProductInput
	if err := bindRequiredJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	product, err := s.catalogSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product": product})
}

type deleteProductRequest struct {
	ID string `json:"id"`
}

// AdminDeleteProduct takes the id from the body or, failing that, the query.
func (s *Server) AdminDeleteProduct(c *gin.Context) {
	var req deleteProductRequest
	if err := bindJSON(c, &req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}

	if err := s.catalogSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// bindJSON decodes the body, keeping domain decode errors (e.g. a bad flag)
// visible to the error mapper. An empty body yields io.EOF.
func bindJSON(c *gin.Context, dest any) error {
	if c.Request.Body == nil {
		return io.EOF
	}
	err := json.NewDecoder(c.Request.Body).Decode(dest)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, catalogdomain.ErrInvalidFlag), errors.Is(err, catalogdomain.ErrInvalidPrice):
		return err
	default:
		return ErrInvalidJSON
	}
}

func bindRequiredJSON(c *gin.Context, dest any) error {
	if err := bindJSON(c, dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInvalidRequest
		}
		return err
	}
	return nil
}
