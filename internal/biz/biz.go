package biz

import "github.com/google/wire"

// ProviderSet is biz providers for the API.
var ProviderSet = wire.NewSet(NewMovieUseCase)

// IngestProviderSet is biz providers for the processor.
var IngestProviderSet = wire.NewSet(NewIngestUseCase, NewIngestStats)
