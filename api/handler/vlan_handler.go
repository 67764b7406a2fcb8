package handler

import (
	"errors"
	"net/http"
	"strconv"

	"vlanman/api/middleware"
	"vlanman/internal/dto"
	"vlanman/internal/entity"
	"vlanman/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type VlanHandler struct {
	Vlans    *service.VlanService
	Validate *validator.Validate
}

func NewVlanHandler(vlans *service.VlanService, validate *validator.Validate) *VlanHandler {
	return &VlanHandler{Vlans: vlans, Validate: validate}
}

func (h *VlanHandler) Create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.CreateVlanRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	record, err := h.Vlans.CreateVlan(c.Request().Context(), actor, service.CreateVlanInput{
		VlanID:      req.VlanID,
		Name:        req.Name,
		Description: req.Description,
		SubnetMask:  req.SubnetMask,
		AutoDelete:  req.AutoDelete,
		ExpiryHours: req.ExpiryHours,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.VlanResponseFromEntity(record))
}

func (h *VlanHandler) Get(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	vlanID, err := parseVlanID(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	record, err := h.Vlans.ReadVlan(c.Request().Context(), actor, vlanID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VlanResponseFromEntity(record))
}

func (h *VlanHandler) Update(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	vlanID, err := parseVlanID(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	var req dto.UpdateVlanRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	record, err := h.Vlans.UpdateVlan(c.Request().Context(), actor, vlanID, service.UpdateVlanInput{
		Name:        req.Name,
		Description: req.Description,
		SubnetMask:  req.SubnetMask,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VlanResponseFromEntity(record))
}

func (h *VlanHandler) Delete(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	vlanID, err := parseVlanID(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Vlans.DeleteVlan(c.Request().Context(), actor, vlanID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VlanHandler) List(c echo.Context) error {
	records, err := h.Vlans.ListVlans(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VlanResponsesFromEntities(records))
}

func (h *VlanHandler) ListByUser(c echo.Context) error {
	ownerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	records, err := h.Vlans.ListVlansByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VlanResponsesFromEntities(records))
}

func (h *VlanHandler) DeviceStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Vlans.CheckDevice(c.Request().Context()))
}

func (h *VlanHandler) DeviceVlans(c echo.Context) error {
	vlans, err := h.Vlans.DeviceVlans(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"device_vlans": vlans})
}

func (h *VlanHandler) Activities(c echo.Context) error {
	limit, _ := parseLimitOffset(c)
	entries, err := h.Vlans.ListActivities(c.Request().Context(), limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ActivityResponsesFromEntities(entries))
}

func (h *VlanHandler) UserActivities(c echo.Context) error {
	actorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	limit, _ := parseLimitOffset(c)
	entries, err := h.Vlans.ListActivitiesByActor(c.Request().Context(), actorID, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ActivityResponsesFromEntities(entries))
}

func actorFromContext(c echo.Context) (service.Actor, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		ID:        principal.UserID,
		Elevated:  principal.Role == string(entity.UserRoleAdmin),
		IPAddress: stringPtr(c.RealIP()),
	}, true
}

func parseVlanID(c echo.Context) (int, error) {
	vlanID, err := strconv.Atoi(c.Param("vlan_id"))
	if err != nil {
		return 0, errors.New("invalid vlan id")
	}
	return vlanID, nil
}
