package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) viewOrder(c *gin.Context) {
	orderID, err := queryID(c, "idorder")
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	order, err := s.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (s *Server) statusHistory(c *gin.Context) {
	orderID, err := queryID(c, "idorder")
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	history, err := s.service.StatusHistory(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, history)
}
