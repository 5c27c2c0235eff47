package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// syncRequest - внешнее бронирование, которое может указать ресурс по
// имени внешней сущности вместо id ресурса.
type syncRequest struct {
	model.ExternalBooking
	EntityName string `json:"entity_name,omitempty"`
}

func (s *Server) syncBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ext, err := s.resolveSync(r, ps.ByName("system"), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.Sync.Sync(r.Context(), ext)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// resolveSync привязывает элемент к системе из пути и разрешает entity_name
func (s *Server) resolveSync(r *http.Request, system string, req syncRequest) (model.ExternalBooking, error) {
	ext := req.ExternalBooking
	if ext.ExternalSystem != "" && ext.ExternalSystem != system {
		return ext, model.NewValidationError("external_system", "does not match %q", system)
	}
	ext.ExternalSystem = system

	if ext.ResourceID == uuid.Nil && req.EntityName != "" {
		res, err := s.svc.Resources.FindByExternalName(r.Context(), system, req.EntityName)
		if err != nil {
			return ext, err
		}
		ext.ResourceID = res.ID
	}
	return ext, nil
}

type batchRequest struct {
	Items []syncRequest `json:"items"`
}

type batchItemResponse struct {
	service.BatchItem
	Error *errorBody `json:"error,omitempty"`
}

// syncBatch отвечает 200 с результатом по каждому элементу; элементы падают независимо
func (s *Server) syncBatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	system := ps.ByName("system")
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	// out повторяет порядок запроса, synced[j] - позиция j-го элемента items в запросе
	out := make([]batchItemResponse, len(req.Items))
	items := make([]model.ExternalBooking, 0, len(req.Items))
	synced := make([]int, 0, len(req.Items))
	for i, item := range req.Items {
		ext, err := s.resolveSync(r, system, item)
		if err != nil {
			out[i] = batchItemResponse{
				BatchItem: service.BatchItem{ExternalRef: item.ExternalRef},
				Error:     batchError(err),
			}
			continue
		}
		items = append(items, ext)
		synced = append(synced, i)
	}

	for j, item := range s.svc.Sync.SyncBatch(r.Context(), items) {
		resp := batchItemResponse{BatchItem: item}
		if item.Err != nil {
			resp.Error = batchError(item.Err)
		}
		out[synced[j]] = resp
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": out})
}

func batchError(err error) *errorBody {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return &errorBody{Error: msg, Code: code}
}

func (s *Server) linkedBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := s.svc.Sync.Linked(r.Context(), ps.ByName("system"), ps.ByName("ref"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type seedRequest struct {
	Teams []service.TeamSeed `json:"teams"`
}

func (s *Server) seedTeams(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	result, err := s.svc.Resources.SeedTeams(r.Context(), ps.ByName("system"), req.Teams)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// entity разрешает :system/:name в id отражённого ресурса
func (s *Server) entity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (uuid.UUID, bool) {
	res, err := s.svc.Resources.FindByExternalName(r.Context(), ps.ByName("system"), ps.ByName("name"))
	if err != nil {
		s.respondError(w, r, err)
		return uuid.Nil, false
	}
	return res.ID, true
}

func (s *Server) entitySchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := s.entity(w, r, ps); ok {
		s.writeSchedule(w, r, id)
	}
}

func (s *Server) entityAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := s.entity(w, r, ps); ok {
		s.writeAvailability(w, r, id)
	}
}

func (s *Server) entitySuggest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if id, ok := s.entity(w, r, ps); ok {
		s.writeSuggestions(w, r, id)
	}
}

type originResponse struct {
	Bookings []*model.BookingRequest `json:"bookings"`
}

func (s *Server) completeOrigin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := s.svc.Bookings.CompleteByOrigin(r.Context(), ps.ByName("system"), ps.ByName("ref"), actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.BookingRequest{}
	}
	respondJSON(w, http.StatusOK, originResponse{Bookings: bookings})
}

func (s *Server) cancelOrigin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	bookings, err := s.svc.Bookings.CancelByOrigin(r.Context(), ps.ByName("system"), ps.ByName("ref"), actor(r), req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.BookingRequest{}
	}
	respondJSON(w, http.StatusOK, originResponse{Bookings: bookings})
}
