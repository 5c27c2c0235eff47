package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var filter model.BookingFilter
	if raw := r.URL.Query().Get("resource_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(w, r, model.NewValidationError("resource_id", "must be a UUID"))
			return
		}
		filter.ResourceID = &id
	}
	for _, raw := range queryList(r, "status") {
		status := model.BookingStatus(raw)
		if !status.IsValid() {
			s.respondError(w, r, model.NewValidationError("status", "unknown status %q", raw))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	var err error
	if filter.From, err = queryTime(r, "from"); err != nil {
		s.respondError(w, r, err)
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		s.respondError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.respondError(w, r, err)
		return
	}
	filter.OriginService = r.URL.Query().Get("origin_service")
	filter.OriginRef = r.URL.Query().Get("origin_ref")

	bookings, err := s.svc.Bookings.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.BookingRequest{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

type submitRequest struct {
	ResourceID    uuid.UUID      `json:"resource_id"`
	Requester     string         `json:"requester"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	Priority      model.Priority `json:"priority"`
	OriginService string         `json:"origin_service"`
	OriginRef     string         `json:"origin_ref"`
	Payload       map[string]any `json:"payload"`
}

type submitResponse struct {
	Booking     *model.BookingRequest `json:"booking"`
	Suggestions []model.Interval      `json:"suggestions,omitempty"`
}

func (s *Server) submitBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Submit(r.Context(), service.SubmitRequest{
		ResourceID:    req.ResourceID,
		Requester:     req.Requester,
		Title:         req.Title,
		Description:   req.Description,
		Interval:      model.Interval{Start: req.Start, End: req.End},
		Priority:      req.Priority,
		OriginService: req.OriginService,
		OriginRef:     req.OriginRef,
		Payload:       req.Payload,
	}, actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := submitResponse{Booking: booking}
	if booking.Status == model.BookingStatusRejected {
		resp.Suggestions = s.alternativesFor(r.Context(), booking)
	}
	respondJSON(w, http.StatusCreated, resp)
}

// alternativesFor подбирает ближайшие свободные слоты для отклонённого бронирования.
// Ошибка поиска стоит только подсказки, поэтому логируется и отбрасывается.
func (s *Server) alternativesFor(ctx context.Context, b *model.BookingRequest) []model.Interval {
	slots, err := s.svc.Suggest.Suggest(ctx, b.ResourceID, service.SuggestRequest{
		Preferred: b.Interval,
		Priority:  b.Priority,
	})
	if err != nil {
		s.logger.Warn("Failed to suggest alternatives",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return slots
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (s *Server) bookingHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	events, err := s.svc.Bookings.History(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.BookingEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// bookingAction превращает операцию жизненного цикла в POST обработчик.
// Тело необязательно и несёт только причину.
func (s *Server) bookingAction(
	op func(ctx context.Context, id uuid.UUID, actor, reason string) (*model.BookingRequest, error),
) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := paramUUID(ps, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		var req reasonRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				s.respondError(w, r, err)
				return
			}
		}
		booking, err := op(r.Context(), id, actor(r), req.Reason)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, booking)
	}
}

func (s *Server) confirmBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.bookingAction(func(ctx context.Context, id uuid.UUID, actor, _ string) (*model.BookingRequest, error) {
		return s.svc.Bookings.Confirm(ctx, id, actor)
	})(w, r, ps)
}

func (s *Server) startBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.bookingAction(func(ctx context.Context, id uuid.UUID, actor, _ string) (*model.BookingRequest, error) {
		return s.svc.Bookings.Start(ctx, id, actor)
	})(w, r, ps)
}

func (s *Server) completeBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.bookingAction(func(ctx context.Context, id uuid.UUID, actor, _ string) (*model.BookingRequest, error) {
		return s.svc.Bookings.Complete(ctx, id, actor)
	})(w, r, ps)
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.bookingAction(s.svc.Bookings.Cancel)(w, r, ps)
}

func (s *Server) rejectBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.bookingAction(s.svc.Bookings.Reject)(w, r, ps)
}
