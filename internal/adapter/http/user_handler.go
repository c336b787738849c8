package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     domain.Role `json:"rol"`
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.logger, badBody())
		return
	}

	sess, err := s.service.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, sess.User)
}

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.logger, badBody())
		return
	}

	user, err := s.service.SignUp(c.Request.Context(), interfaces.SignUpCommand{
		Username: req.Username,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, user)
}
