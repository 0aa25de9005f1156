package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/middleware"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/booking"
)

// Handler wires the booking HTTP surface
type Handler struct {
	bookingHTTP *BookingHandler
	cfg         *models.Config
}

// NewHandler creates a new booking handler
func NewHandler(cfg *models.Config, bookingUC booking.BookingUC) *Handler {
	return &Handler{
		bookingHTTP: NewBookingHandler(cfg, bookingUC),
		cfg:         cfg,
	}
}

// RegisterRoutes registers all booking HTTP routes. Listings are public;
// everything touching a booking requires authentication.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/listings", h.bookingHTTP.ListListings)
	api.GET("/listings/:listingID", h.bookingHTTP.GetListing)

	bookings := api.Group("/bookings", middleware.JWTAuthMiddleware(h.cfg.JWT))
	bookings.POST("", h.bookingHTTP.CreateBooking)
	bookings.GET("", h.bookingHTTP.ListBookings)
	bookings.GET("/:bookingID", h.bookingHTTP.GetBooking)
	bookings.POST("/:bookingID/cancel", h.bookingHTTP.CancelBooking)
	bookings.GET("/:bookingID/payment-status", h.bookingHTTP.GetPaymentStatus)
}
