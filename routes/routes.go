package routes

import (
	"github.com/julienschmidt/httprouter"

	"mentra/appointments"
	"mentra/auth"
	"mentra/availability"
	"mentra/meet"
	"mentra/middleware"
	"mentra/notify"
	"mentra/ratelim"
	"mentra/users"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.LogoutUser))
	router.POST("/api/auth/token/refresh", rl.Limit(middleware.Authenticate(auth.RefreshToken)))
}

func AddUserRoutes(router *httprouter.Router) {
	router.GET("/api/users/:userid", middleware.OptionalAuth(users.GetUserProfile))
}

func AddAvailabilityRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.PUT("/api/availability", rl.Limit(middleware.Authenticate(availability.UpsertAvailability)))
	router.GET("/api/availability/:mentorid", middleware.OptionalAuth(availability.GetAvailability))
	router.GET("/api/availability/:mentorid/monthly", middleware.OptionalAuth(availability.GetMonthlyAvailability))
}

func AddAppointmentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/appointments", rl.Limit(middleware.Authenticate(appointments.CreateAppointment)))
	router.GET("/api/appointments/appointment/:id", middleware.Authenticate(appointments.GetAppointment))
	router.PATCH("/api/appointments/appointment/:id", middleware.Authenticate(appointments.UpdateAppointment))
	router.POST("/api/appointments/appointment/:id/reschedule", rl.Limit(middleware.Authenticate(appointments.RescheduleAppointment)))
	router.POST("/api/appointments/appointment/:id/cancel", rl.Limit(middleware.Authenticate(appointments.CancelAppointment)))
	router.GET("/api/appointments/user/:userid", middleware.Authenticate(appointments.GetUserAppointments))
	router.GET("/api/appointments/mentor/:mentorid", middleware.Authenticate(appointments.GetMentorAppointments))

	router.GET("/ws/appointments/:mentorid", appointments.HandleWS)
}

func AddMeetingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/meetings", rl.Limit(middleware.Authenticate(meet.CreateMeetingHandler)))
	router.GET("/api/meetings/:id", middleware.Authenticate(meet.GetMeetingHandler))
	router.DELETE("/api/meetings/:id", rl.Limit(middleware.Authenticate(meet.DeleteMeetingHandler)))
}

func AddNotificationRoutes(router *httprouter.Router) {
	router.GET("/api/notifications", middleware.Authenticate(notify.GetNotifications))
	router.POST("/api/notifications/:id/read", middleware.Authenticate(notify.MarkNotificationRead))
}
