package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

type updateStatusRequest struct {
	Status  domain.Status `json:"status"`
	OrderID int64         `json:"idorder"`
	UserID  int64         `json:"users_idusers"`
}

func badBody() error {
	return &domain.APIError{Code: domain.CodeEmptyParams, Message: "invalid request body"}
}

func (s *Server) createOrder(c *gin.Context) {
	var order domain.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		respondError(c, s.logger, badBody())
		return
	}
	if order.UserID == 0 {
		order.UserID = currentUser(c).ID
	}

	id, err := s.service.CreateOrder(c.Request.Context(), order)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"idorder": id})
}

func (s *Server) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.logger, badBody())
		return
	}
	if req.UserID == 0 {
		req.UserID = currentUser(c).ID
	}

	if err := s.service.UpdateStatus(c.Request.Context(), req.OrderID, req.Status, req.UserID); err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"idorder": req.OrderID, "status": req.Status})
}

func (s *Server) viewOrders(c *gin.Context) {
	orders, err := s.service.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

func (s *Server) viewOrdersByUser(c *gin.Context) {
	userID, err := queryID(c, "idusers")
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	orders, err := s.service.ListOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}
