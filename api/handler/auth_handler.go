package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vlanman/api/middleware"
	"vlanman/internal/dto"
	"vlanman/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Vlans    *service.VlanService
	Validate *validator.Validate
}

func NewAuthHandler(auth *service.AuthService, vlans *service.VlanService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{Auth: auth, Vlans: vlans, Validate: validate}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.LoginInput{
		NIM:       req.NIM,
		Name:      req.Name,
		Email:     req.Email,
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	}
	result, err := h.Auth.Login(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	total, err := h.Auth.CountUserVlans(c.Request().Context(), result.User.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User:        dto.UserResponseFromEntity(result.User, total),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Auth.Logout(c.Request().Context(), principal.UserID, principal.SessionID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	user, err := h.Auth.GetUser(c.Request().Context(), principal.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	vlans, err := h.Vlans.ListVlansByOwner(c.Request().Context(), principal.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user":  dto.UserResponseFromEntity(user, int64(len(vlans))),
		"vlans": dto.VlanResponsesFromEntities(vlans),
	})
}

func (h *AuthHandler) ListUsers(c echo.Context) error {
	limit, offset := parseLimitOffset(c)
	users, err := h.Auth.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		total, err := h.Auth.CountUserVlans(c.Request().Context(), users[i].ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		responses = append(responses, dto.UserResponseFromEntity(&users[i], total))
	}
	return c.JSON(http.StatusOK, responses)
}

func (h *AuthHandler) GetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	user, err := h.Auth.GetUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	total, err := h.Auth.CountUserVlans(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user, total))
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeServiceError(c echo.Context, err error) error {
	var connErr *service.ConnectivityError
	var consistencyErr *service.ConsistencyError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidSession), errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.As(err, &connErr):
		status = http.StatusServiceUnavailable
	case errors.As(err, &consistencyErr):
		// Distinct kind so upstream layers can alert instead of
		// treating this as a generic failure.
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": err.Error(),
			"kind":    "consistency",
		})
	}
	return writeError(c, status, err)
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
