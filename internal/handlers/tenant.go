package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/logger"
)

func handleCreateTenant(ts tenantService, l logger.Logger) http.Handler {
	type request struct {
		Name    string `json:"name" validate:"required,notblank,max=100"`
		Address string `json:"address" validate:"required,notblank,max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tenant, err := ts.Create(r.Context(), data.Name, data.Address)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrValidationFailed):
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			default:
				l.Error("tenant creation failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("tenant created", "tenant_id", tenant.ID)
		render.JSONWithStatus(w, idResponse{ID: tenant.ID}, http.StatusCreated)
	})
}

func handleListTenants(ts tenantService, l logger.Logger) http.Handler {
	type tenantResponse struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Address   string    `json:"address"`
		CreatedAt time.Time `json:"createdAt"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenants, err := ts.List(r.Context())
		if err != nil {
			l.Error("tenant listing failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]tenantResponse, 0, len(tenants))
		for _, t := range tenants {
			response = append(response, tenantResponse{
				ID:        t.ID,
				Name:      t.Name,
				Address:   t.Address,
				CreatedAt: t.CreatedAt,
			})
		}

		render.JSON(w, response)
	})
}
