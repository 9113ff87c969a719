package domain

import (
	"github.com/google/wire"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	domainreplicate.NewReplicateService,
)
