package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAccess(c *gin.Context) {
	record, err := s.accessSvc.Lookup(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) GetAccessReceipt(c *gin.Context) {
	token := c.Query("token")
	doc, err := s.accessSvc.Receipt(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="tsf-shop-recibo.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}
