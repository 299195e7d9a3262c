//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
	"github.com/yixianOu/moviestore/internal/data"
	"github.com/yixianOu/moviestore/internal/server"
	"github.com/yixianOu/moviestore/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Ingest, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.IngestProviderSet, data.IngestProviderSet, biz.IngestProviderSet, service.IngestProviderSet, newApp))
}
