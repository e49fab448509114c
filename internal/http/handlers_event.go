package http

import (
	"errors"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/log"
	"moneta/internal/services"
)

// handleEvents dispatches the calendar action routes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	req, err := parseAction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.currentUser(r, req.Token)
	if err != nil {
		unauthorized(w, err)
		return
	}

	switch req.Action {
	case "addEvent":
		s.addEvent(w, r, req, user)
	case "getEvents":
		s.getEvents(w, r, user)
	case "getUpcomingEvents":
		s.getUpcomingEvents(w, r, req, user)
	case "updateEvent":
		s.updateEvent(w, r, req, user)
	case "removeEvent":
		s.removeEvent(w, r, req, user)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) addEvent(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Title           string `json:"title"`
		Note            string `json:"note"`
		Date            string `json:"date"`
		Time            string `json:"time"`
		RecurringPeriod string `json:"recurringPeriod"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	created, err := s.events.Add(r.Context(), core.Event{
		UserID:    user.ID,
		Title:     payload.Title,
		Note:      payload.Note,
		Date:      date,
		TimeOfDay: payload.Time,
		Period:    core.RecurringPeriod(payload.RecurringPeriod),
	})
	if err != nil {
		s.eventError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Event eventJSON `json:"event"`
	}{envelope{Success: true}, toEventJSON(created)})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request, user core.User) {
	es, err := s.events.List(r.Context(), user.ID)
	if err != nil {
		s.eventError(w, r, "getEvents", err)
		return
	}
	events := make([]eventJSON, 0, len(es))
	for _, e := range es {
		events = append(events, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Events []eventJSON `json:"events"`
	}{envelope{Success: true}, events})
}

// getUpcomingEvents expands recurring events into their occurrences inside
// the requested window.
func (s *Server) getUpcomingEvents(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		From  string `json:"from"`
		Until string `json:"until"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	from, err := parseDate(payload.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	until, err := parseDate(payload.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid until date")
		return
	}

	occurrences, err := s.events.Upcoming(r.Context(), user.ID, from, until)
	if err != nil {
		s.eventError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Occurrences []occurrenceJSON `json:"occurrences"`
	}{envelope{Success: true}, toOccurrenceListJSON(occurrences)})
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		ID              int64  `json:"id"`
		Title           string `json:"title"`
		Note            string `json:"note"`
		Date            string `json:"date"`
		Time            string `json:"time"`
		RecurringPeriod string `json:"recurringPeriod"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	if err := s.events.Update(r.Context(), core.Event{
		ID:        payload.ID,
		UserID:    user.ID,
		Title:     payload.Title,
		Note:      payload.Note,
		Date:      date,
		TimeOfDay: payload.Time,
		Period:    core.RecurringPeriod(payload.RecurringPeriod),
	}); err != nil {
		s.eventError(w, r, req.Action, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) removeEvent(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.events.Remove(r.Context(), payload.ID, user.ID); err != nil {
		s.eventError(w, r, req.Action, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) eventError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, services.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Event action failed",
			log.FieldAction, action, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
