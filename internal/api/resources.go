package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

func (s *Server) listResources(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	resources, err := s.svc.Resources.ListResources(r.Context(), includeInactive)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if resources == nil {
		resources = []*model.Resource{}
	}
	respondJSON(w, http.StatusOK, resources)
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in service.ResourceInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.svc.Resources.CreateResource(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.svc.Resources.GetResource(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) updateResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var in service.ResourceInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.svc.Resources.UpdateResource(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) deactivateResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.Resources.DeactivateResource(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type workingHoursRequest struct {
	StartHour   int   `json:"start_hour"`
	EndHour     int   `json:"end_hour"`
	WorkingDays []int `json:"working_days"`
}

func (s *Server) setWorkingHours(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req workingHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	days := make([]time.Weekday, 0, len(req.WorkingDays))
	for _, d := range req.WorkingDays {
		if d < 0 || d > 6 {
			s.respondError(w, r, model.NewValidationError("working_days", "day %d out of range 0..6", d))
			return
		}
		days = append(days, time.Weekday(d))
	}
	res, err := s.svc.Resources.SetAvailability(r.Context(), id, req.StartHour, req.EndHour, days)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type blackoutRequest struct {
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

func (s *Server) addBlackout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req blackoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rule, err := s.svc.Resources.AddBlackoutPeriod(r.Context(), id, req.Name, req.Start, req.End, req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rules, err := s.svc.Resources.ListRules(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if rules == nil {
		rules = []*model.ScheduleRule{}
	}
	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) addRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var in service.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	rule, err := s.svc.Resources.AddRule(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rule, err := s.svc.Resources.GetRule(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var in service.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	rule, err := s.svc.Resources.UpdateRule(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.Resources.DeleteRule(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resourceAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeAvailability(w, r, id)
}

func (s *Server) resourceSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeSchedule(w, r, id)
}

func (s *Server) resourceUtilization(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	startDate, err := requiredQuery(r, "start_date")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	endDate, err := requiredQuery(r, "end_date")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	stats, err := s.svc.Reports.Utilization(r.Context(), id, startDate, endDate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) resourceSuggest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := paramUUID(ps, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeSuggestions(w, r, id)
}

// writeAvailability отдаёт дневной отчёт по ?start_date=&end_date=
func (s *Server) writeAvailability(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	startDate, err := requiredQuery(r, "start_date")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	endDate, err := requiredQuery(r, "end_date")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	days, err := s.svc.Reports.Availability(r.Context(), id, startDate, endDate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, days)
}

func (s *Server) writeSchedule(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	from, err := requiredTime(r, "start")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	to, err := requiredTime(r, "end")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	bookings, err := s.svc.Reports.Schedule(r.Context(), id, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.BookingRequest{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

type suggestRequest struct {
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Priority    model.Priority `json:"priority"`
	MaxCount    int            `json:"max_count"`
	Granularity string         `json:"granularity"`
	Horizon     string         `json:"horizon"`
}

func (req suggestRequest) toService() (service.SuggestRequest, error) {
	out := service.SuggestRequest{
		Preferred: model.Interval{Start: req.Start, End: req.End},
		Priority:  req.Priority,
		MaxCount:  req.MaxCount,
	}
	var err error
	if req.Granularity != "" {
		if out.Granularity, err = time.ParseDuration(req.Granularity); err != nil {
			return out, model.NewValidationError("granularity", "must be a duration like 30m")
		}
	}
	if req.Horizon != "" {
		if out.Horizon, err = time.ParseDuration(req.Horizon); err != nil {
			return out, model.NewValidationError("horizon", "must be a duration like 336h")
		}
	}
	return out, nil
}

func (s *Server) writeSuggestions(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sreq, err := req.toService()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	slots, err := s.svc.Suggest.Suggest(r.Context(), id, sreq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": slots})
}
