package server

import (
	"context"

	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/yixianOu/moviestore/internal/service"
)

const (
	OperationMovieRoot       = "/moviestore.v1.MovieService/Root"
	OperationMovieHealth     = "/moviestore.v1.MovieService/Health"
	OperationMovieListMovies = "/moviestore.v1.MovieService/ListMovies"
	OperationMovieGetMovie   = "/moviestore.v1.MovieService/GetMovie"

	OperationProcessorHealth = "/moviestore.v1.ProcessorService/Health"
)

type emptyRequest struct{}

func registerMovieRoutes(srv *khttp.Server, svc *service.MovieService) {
	r := srv.Route("/")
	r.GET("/", movieRootHandler(svc))
	r.GET("/health", movieHealthHandler(svc))
	r.GET("/api/v1/movies", movieListHandler(svc))
	r.GET("/api/v1/movies/{id}", movieGetHandler(svc))
}

func registerProcessorRoutes(srv *khttp.Server, svc *service.ProcessorService) {
	r := srv.Route("/")
	r.GET("/health", processorHealthHandler(svc))
}

func movieRootHandler(svc *service.MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationMovieRoot)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.Root(ctx)
		})
		out, err := h(ctx, &emptyRequest{})
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*service.RootReply))
	}
}

func movieHealthHandler(svc *service.MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationMovieHealth)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.Health(ctx)
		})
		out, err := h(ctx, &emptyRequest{})
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*service.HealthReply))
	}
}

func movieListHandler(svc *service.MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in service.ListMoviesRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationMovieListMovies)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.ListMovies(ctx, req.(*service.ListMoviesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*service.ListMoviesReply))
	}
}

func movieGetHandler(svc *service.MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in service.GetMovieRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationMovieGetMovie)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.GetMovie(ctx, req.(*service.GetMovieRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*service.MovieReply))
	}
}

func processorHealthHandler(svc *service.ProcessorService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationProcessorHealth)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.Health(ctx)
		})
		out, err := h(ctx, &emptyRequest{})
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*service.ProcessorHealthReply))
	}
}
