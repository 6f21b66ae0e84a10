package handlers

import (
	"context"

	"go.uber.org/zap"

	"ideaforge/application/ports"
	"ideaforge/application/queries"
)

// GetProvidersHandler lists the configured generation providers
type GetProvidersHandler struct {
	catalog ports.ProviderCatalog
	logger  *zap.Logger
}

// NewGetProvidersHandler creates a new providers handler
func NewGetProvidersHandler(
	catalog ports.ProviderCatalog,
	logger *zap.Logger,
) *GetProvidersHandler {
	return &GetProvidersHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Handle executes the providers query
func (h *GetProvidersHandler) Handle(ctx context.Context, query queries.GetProvidersQuery) (*queries.GetProvidersResult, error) {
	infos := h.catalog.List()

	providers := make([]queries.ProviderDTO, 0, len(infos))
	for _, info := range infos {
		providers = append(providers, queries.ProviderDTO{
			Name:    info.Name,
			Model:   info.Model,
			BaseURL: info.BaseURL,
			Enabled: info.Enabled,
			Active:  info.Active,
		})
	}

	result := &queries.GetProvidersResult{Providers: providers}

	active, err := h.catalog.Active()
	if err != nil {
		// A misconfigured registry still lists what it knows about.
		h.logger.Warn("no active provider resolved", zap.Error(err))
	} else {
		result.Active = active.Name
	}

	return result, nil
}
