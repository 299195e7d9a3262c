package server

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yixianOu/moviestore/internal/conf"
	"github.com/yixianOu/moviestore/internal/service"
)

// errorEncoder hides internal detail: every 5xx leaves as a generic body.
func errorEncoder(w http.ResponseWriter, r *http.Request, err error) {
	if se := errors.FromError(err); se.Code >= http.StatusInternalServerError {
		err = errors.InternalServer("INTERNAL", "internal server error")
	}
	khttp.DefaultErrorEncoder(w, r, err)
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, movieSvc *service.MovieService, logger log.Logger) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			RequestID(),
			Metrics(),
			logging.Server(logger),
		),
		khttp.ErrorEncoder(errorEncoder),
	}
	if c.Http.Network != "" {
		opts = append(opts, khttp.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, khttp.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
	}
	if filters := httpFilters(c.Http); len(filters) > 0 {
		opts = append(opts, khttp.Filter(filters...))
	}

	srv := khttp.NewServer(opts...)
	registerMovieRoutes(srv, movieSvc)
	srv.Handle("/metrics", promhttp.Handler())
	return srv
}

func httpFilters(c *conf.Server_HTTP) []khttp.FilterFunc {
	var filters []khttp.FilterFunc
	if len(c.CorsOrigins) > 0 {
		filters = append(filters, cors.Handler(cors.Options{
			AllowedOrigins:   c.CorsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
		}))
	}
	if c.RateLimitPerMinute > 0 {
		filters = append(filters, httprate.LimitByIP(c.RateLimitPerMinute, time.Minute))
	}
	return filters
}
