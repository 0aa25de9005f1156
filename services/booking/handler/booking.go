package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/middleware"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/internal/utils"
	"github.com/safarbet/safarbet/services/booking"
)

// BookingHandler handles HTTP requests for bookings and listings
type BookingHandler struct {
	cfg       *models.Config
	bookingUC booking.BookingUC
}

// NewBookingHandler creates a new booking HTTP handler
func NewBookingHandler(cfg *models.Config, bookingUC booking.BookingUC) *BookingHandler {
	return &BookingHandler{
		cfg:       cfg,
		bookingUC: bookingUC,
	}
}

// ListListings handles GET /api/v1/listings
func (h *BookingHandler) ListListings(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	listings, err := h.bookingUC.ListListings(c.Request().Context(), limit, offset)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", listings)
}

// GetListing handles GET /api/v1/listings/:listingID
func (h *BookingHandler) GetListing(c echo.Context) error {
	listingID, err := uuid.Parse(c.Param("listingID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid listing ID")
	}

	listing, err := h.bookingUC.GetListing(c.Request().Context(), listingID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", listing)
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	var req models.BookingCreateRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	b, err := h.bookingUC.CreateBooking(c.Request().Context(), userID, req)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusCreated, "Booking created", b)
}

// GetBooking handles GET /api/v1/bookings/:bookingID
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid booking ID")
	}

	b, err := h.bookingUC.GetBooking(c.Request().Context(), userID, middleware.IsAdmin(c), bookingID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", b)
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	bookings, err := h.bookingUC.ListUserBookings(c.Request().Context(), userID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", bookings)
}

// CancelBooking handles POST /api/v1/bookings/:bookingID/cancel
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid booking ID")
	}

	if err := h.bookingUC.CancelBooking(c.Request().Context(), userID, middleware.IsAdmin(c), bookingID); err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "Booking cancelled", nil)
}

// GetPaymentStatus handles GET /api/v1/bookings/:bookingID/payment-status
func (h *BookingHandler) GetPaymentStatus(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid booking ID")
	}

	status, err := h.bookingUC.GetPaymentStatus(c.Request().Context(), userID, middleware.IsAdmin(c), bookingID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", status)
}
