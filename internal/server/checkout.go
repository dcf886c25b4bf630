package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/tsfshop/storefront/internal/checkout/domain"
)

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutdomain.Request
	if err := bindRequiredJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.checkoutSvc.CreateSession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "url": res.URL})
}

func (s *Server) CreateMercadoPagoPreference(c *gin.Context) {
	var req checkoutdomain.Request
	if err := bindRequiredJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.checkoutSvc.CreatePreference(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "url": res.URL})
}
