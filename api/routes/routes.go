package routes

import (
	"time"

	"vlanman/api/handler"
	"vlanman/api/middleware"
	"vlanman/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Vlans          *handler.VlanHandler
	AuthMiddleware middleware.AuthMiddleware
	LoginRate      *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, vlanHandler *handler.VlanHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Vlans:          vlanHandler,
		AuthMiddleware: authMiddleware,
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	requireAuth := r.AuthMiddleware.RequireAuth
	requireAdmin := middleware.RequireRole(string(entity.UserRoleAdmin))

	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, requireAuth)
	e.GET("/me", r.Auth.Me, requireAuth)

	e.GET("/api/users", r.Auth.ListUsers, requireAuth, requireAdmin)
	e.GET("/api/users/:id", r.Auth.GetUser, requireAuth, requireAdmin)

	e.GET("/api/vlans", r.Vlans.List, requireAuth)
	e.POST("/api/vlans", r.Vlans.Create, requireAuth)
	e.GET("/api/vlans/user/:id", r.Vlans.ListByUser, requireAuth)
	e.GET("/api/vlans/:vlan_id", r.Vlans.Get, requireAuth)
	e.PUT("/api/vlans/:vlan_id", r.Vlans.Update, requireAuth)
	e.DELETE("/api/vlans/:vlan_id", r.Vlans.Delete, requireAuth)

	e.GET("/api/device/status", r.Vlans.DeviceStatus, requireAuth)
	e.GET("/api/device/vlans", r.Vlans.DeviceVlans, requireAuth)

	e.GET("/api/activities", r.Vlans.Activities, requireAuth, requireAdmin)
	e.GET("/api/activities/user/:id", r.Vlans.UserActivities, requireAuth)
}
