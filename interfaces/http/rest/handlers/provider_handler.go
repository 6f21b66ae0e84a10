package handlers

import (
	"net/http"

	"ideaforge/application/ports"
	"ideaforge/application/queries"
	querybus "ideaforge/application/queries/bus"
	"ideaforge/pkg/common"
	"ideaforge/pkg/errors"
	"ideaforge/pkg/utils"

	"go.uber.org/zap"
)

// ProviderHandler handles generation provider registry requests
type ProviderHandler struct {
	queryBus     *querybus.QueryBus
	catalog      ports.ProviderCatalog
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(
	queryBus *querybus.QueryBus,
	catalog ports.ProviderCatalog,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *ProviderHandler {
	return &ProviderHandler{
		queryBus:     queryBus,
		catalog:      catalog,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SwitchProviderRequest selects the active generation provider by name
type SwitchProviderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// ListProviders handles GET /api/v1/providers
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetProvidersQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// SwitchProvider handles PUT /api/v1/providers/active. The switch takes
// effect on the next generation call; in-flight turns keep the provider
// they started with.
func (h *ProviderHandler) SwitchProvider(w http.ResponseWriter, r *http.Request) {
	var req SwitchProviderRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			"invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError,
			err.Error())
		return
	}

	if err := h.catalog.Switch(req.Name); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetProvidersQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
