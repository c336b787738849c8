package http

import (
	"github.com/gin-gonic/gin"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

type Server struct {
	engine  *gin.Engine
	service interfaces.BackofficeService
	logger  logger.Logger
}

func NewServer(service interfaces.BackofficeService, logger logger.Logger) *Server {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(LoggingMiddleware(logger), RecoveryMiddleware(logger))

	s := &Server{engine: r, service: service, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.NoRoute(s.unknownMethod)
	s.engine.NoMethod(s.wrongMethod)

	user := s.engine.Group("/user")
	{
		user.POST("/signIn", s.signIn)
		user.POST("/signUp", s.signUp)
	}

	authed := s.engine.Group("/", AuthMiddleware(s.service, s.logger))

	order := authed.Group("/order")
	{
		order.POST("/createOrder", s.createOrder)
		order.PUT("/updateStatus", s.updateStatus)
		order.GET("/viewOrders", s.viewOrders)
		order.GET("/viewOrdersByUser", s.viewOrdersByUser)
		order.GET("/viewOrder", s.viewOrder)
		order.GET("/statusHistory", s.statusHistory)
	}

	favorites := authed.Group("/favorites")
	{
		favorites.POST("/toggle", s.toggleFavorite)
		favorites.GET("/get", s.getFavorites)
	}
}
