package server

import "github.com/google/wire"

// ProviderSet is server providers for the API.
var ProviderSet = wire.NewSet(NewHTTPServer)

// IngestProviderSet is server providers for the processor.
var IngestProviderSet = wire.NewSet(NewConsumer, NewAdminServer)
