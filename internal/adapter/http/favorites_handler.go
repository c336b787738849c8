package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type favoriteRequest struct {
	UserID    int64 `json:"idusers"`
	ProductID int64 `json:"idproducts"`
}

func (s *Server) toggleFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.logger, badBody())
		return
	}

	added, err := s.service.ToggleFavorite(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"idproducts": req.ProductID, "favorite": added})
}

func (s *Server) getFavorites(c *gin.Context) {
	userID, err := queryID(c, "idusers")
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	ids, err := s.service.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, ids)
}
