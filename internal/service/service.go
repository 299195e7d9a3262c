package service

import "github.com/google/wire"

// ProviderSet is service providers for the API.
var ProviderSet = wire.NewSet(NewMovieService)

// IngestProviderSet is service providers for the processor.
var IngestProviderSet = wire.NewSet(NewProcessorService)
