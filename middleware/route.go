package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "PingSpace/middleware/security"
)

// RouteOpt controls per-route middleware.
type RouteOpt struct {
	IsAuth bool
}

var authOpts midsec.Options

// ConfigAuth sets the JWT options the auth-guarded routes use. Call once
// from main before registering routes.
func ConfigAuth(opts midsec.Options) { authOpts = opts }

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(authOpts), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(authOpts), handler)
	} else {
		r.GET(path, handler)
	}
}

func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.PUT(path, midsec.Middleware(authOpts), handler)
	} else {
		r.PUT(path, handler)
	}
}

func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.DELETE(path, midsec.Middleware(authOpts), handler)
	} else {
		r.DELETE(path, handler)
	}
}
