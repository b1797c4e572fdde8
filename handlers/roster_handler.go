package handlers

import (
	"net/http"

	"github.com/playverse/contest-system/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rosterService services.RosterService) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
	}
}

func (h *RosterHandler) AddTeamHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.JoinTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.rosterService.AddTeam(r.Context(), contestID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.rosterService.ListRoster(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPlayersHandler возвращает плоский справочник игроков комнаты —
// то, что админка показывает в выпадающем списке до ввода запроса.
func (h *RosterHandler) ListPlayersHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	directory, err := h.rosterService.PlayerDirectory(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": directory.Players()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) RemoveTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.RemoveTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
