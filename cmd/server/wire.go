//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/replicate-mcp/internal/domain"
	"github.com/janhq/replicate-mcp/internal/infrastructure"
	"github.com/janhq/replicate-mcp/internal/interfaces"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
