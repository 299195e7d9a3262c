package server

import (
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yixianOu/moviestore/internal/conf"
	"github.com/yixianOu/moviestore/internal/service"
)

// AdminServer is the processor's health and metrics listener.
type AdminServer struct {
	*khttp.Server
}

// NewAdminServer new the processor admin HTTP server.
func NewAdminServer(c *conf.Server, svc *service.ProcessorService) *AdminServer {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
		),
		khttp.ErrorEncoder(errorEncoder),
	}
	if c != nil && c.Admin != nil {
		if c.Admin.Network != "" {
			opts = append(opts, khttp.Network(c.Admin.Network))
		}
		if c.Admin.Addr != "" {
			opts = append(opts, khttp.Address(c.Admin.Addr))
		}
		if c.Admin.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Admin.Timeout.AsDuration()))
		}
	}

	srv := khttp.NewServer(opts...)
	registerProcessorRoutes(srv, svc)
	srv.Handle("/metrics", promhttp.Handler())
	return &AdminServer{Server: srv}
}
