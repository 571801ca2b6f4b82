package http

import (
	"github.com/julienschmidt/httprouter"
)

// NewRouter creates and configures a new instance of the router.
func NewRouter(h Handler) *httprouter.Router {
	r := httprouter.New()

	r.POST("/github", h.GithubWebhook)
	r.POST("/webhook", h.UcbWebhook)
	r.GET("/health", h.Health)

	return r
}
