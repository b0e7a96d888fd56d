package router

import (
	"NewsComments/internal/router/handlers"
	"NewsComments/internal/router/middleware"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
)

type Router struct {
	rout    *ginext.Engine
	handler *handlers.CommentHandler
	log     *zap.Logger
}

func NewRouter(mode string, handler *handlers.CommentHandler, log *zap.Logger) *Router {
	router := Router{
		rout:    ginext.New(mode),
		handler: handler,
		log:     log.Named("router"),
	}
	router.setupRouter()
	return &router
}

func (r *Router) setupRouter() {
	r.rout.Use(middleware.LoggingMiddleware(r.log))
	r.rout.POST("/comments/:news_id", r.handler.SubmitComment)
	r.rout.GET("/comments/:news_id", r.handler.GetThread)
	r.rout.GET("/comments/:news_id/:comment_id", r.handler.GetSubthread)
	r.rout.POST("/comments/:news_id/:comment_id/vote", r.handler.VoteComment)
	r.rout.GET("/threads/:news_id/count", r.handler.CountComments)
	r.rout.DELETE("/threads/:news_id", r.handler.RemoveThread)
	r.rout.GET("/users/:user_id/comments", r.handler.GetUserComments)
}

func (r *Router) GetEngine() *ginext.Engine {
	return r.rout
}

func (r *Router) Start(addr string) error {
	return r.rout.Run(addr)
}
