package handlers

import (
	"net/http"

	"github.com/playverse/contest-system/middleware"
	"github.com/playverse/contest-system/services"
	"github.com/playverse/contest-system/slate"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
	}
}

func (h *ResultHandler) GetSlateHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	workingSlate, err := h.resultService.GetSlate(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slate": workingSlate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) SaveSlateHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var submitted slate.Slate
	if err := readJSON(w, r, &submitted); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	saved, err := h.resultService.SaveSlate(r.Context(), contestID, &submitted)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slate": saved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CandidatesHandler — серверная версия выпадающего списка админки:
// кандидаты для конкретного ранга и позиции с учётом текущего слейта.
func (h *ResultHandler) CandidatesHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rank, err := queryInt(r, "rank", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	position, err := queryInt(r, "slot", 1)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	query := r.URL.Query().Get("q")

	candidates, err := h.resultService.Candidates(r.Context(), contestID, rank, position, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidates": candidates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	declaration, err := h.resultService.GetDeclaration(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"declaration": declaration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeclareHandler принимает слейт (или использует сохранённый черновик при
// пустом теле) и объявляет результаты. Повторный вызов для уже объявленного
// контеста возвращает ту же декларацию с кодом 200.
func (h *ResultHandler) DeclareHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var submitted *slate.Slate
	if r.ContentLength > 0 {
		var body slate.Slate
		if err := readJSON(w, r, &body); err != nil {
			badRequestResponse(w, r, err)
			return
		}
		submitted = &body
	}

	declaration, err := h.resultService.Declare(r.Context(), contestID, userID, submitted)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"declaration": declaration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
