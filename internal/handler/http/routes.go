package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Backend routes served by [Handler.Init].
const (
	PathPing          = "/mobile/3/ping"
	PathInstance      = "/mobile/3/instance"
	PathUser          = "/mobile/3/user"
	PathPersonalize   = "/mobile/3/user/personalize"
	PathDepersonalize = "/mobile/3/user/depersonalize"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Get(PathPing, h.ping)

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post(PathInstance, h.createInstance)
		r.Patch(PathInstance, h.updateInstance)
		r.Get(PathInstance, h.fetchInstance)
		r.Delete(PathInstance+"/{expired}", h.deleteInstance)

		r.Get(PathUser, h.fetchUser)
		r.Patch(PathUser, h.updateUser)
		r.Post(PathPersonalize, h.personalize)
		r.Post(PathDepersonalize, h.depersonalize)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
