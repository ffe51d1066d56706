package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/handlers/userctx"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
)

func handleSelf(us userService, l logger.Logger) http.Handler {
	type response struct {
		ID        uuid.UUID   `json:"id"`
		Email     string      `json:"email"`
		FirstName string      `json:"firstName"`
		LastName  string      `json:"lastName"`
		Role      models.Role `json:"role"`
		CreatedAt time.Time   `json:"createdAt"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := userctx.FromContext(r.Context())

		user, err := us.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("self lookup failed", "error", err, "user_id", claims.UserID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		})
	})
}

// Admin action: log the user out everywhere
// Access tokens already issued stay valid until expiration
func handleRevokeSessions(as authService, l logger.Logger) http.Handler {
	type response struct {
		Revoked int `json:"revoked"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		revoked, err := as.RevokeAll(r.Context(), userID)
		if err != nil {
			l.Error("sessions revocation failed", "error", err, "user_id", userID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		l.Info("sessions revoked", "user_id", userID, "revoked", revoked)
		render.JSON(w, response{Revoked: revoked})
	})
}
