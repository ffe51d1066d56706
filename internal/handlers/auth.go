package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/service/auth"
)

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email     string `json:"email" validate:"required,email,max=255"`
		Password  string `json:"password" validate:"required,min=8,max=256"`
		FirstName string `json:"firstName" validate:"required,notblank,max=100"`
		LastName  string `json:"lastName" validate:"required,notblank,max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("invalid register request", "error", err)
			return
		}

		user, pair, err := as.Register(r.Context(), auth.RegisterParams{
			Email:     data.Email,
			Password:  data.Password,
			FirstName: data.FirstName,
			LastName:  data.LastName,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			case errors.Is(err, apperrors.ErrValidationFailed):
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			default:
				l.Error("user registration failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("user registered", "user_id", user.ID)
		as.SetTokenPairToResponse(w, pair)
		render.JSONWithStatus(w, idResponse{ID: user.ID}, http.StatusCreated)
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("invalid login request", "error", err)
			return
		}

		user, pair, err := as.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAuthenticationFailed):
				render.ServiceError(w, "Email or password does not match", http.StatusUnauthorized)
			default:
				l.Error("user login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("user logged in", "user_id", user.ID)
		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, idResponse{ID: user.ID})
	})
}

func handleRefresh(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := as.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		user, pair, err := as.Refresh(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrSessionRevokedOrExpired):
				render.ServiceError(w, "Session revoked or expired", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, idResponse{ID: user.ID})
	})
}

// Logout always clears token cookies. Already revoked session is not an error
func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := as.GetRefreshString(r)
		if err == nil {
			err = as.Logout(r.Context(), refresh)
		}

		if err != nil && !errors.Is(err, apperrors.ErrInvalidToken) && !errors.Is(err, apperrors.ErrSessionRevokedOrExpired) {
			l.Error("logout failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		as.ClearTokens(w)
		render.JSON(w, messageResponse{Message: "Logged out successfully"})
	})
}
