package handlers

import (
	"errors"
	"net/http"

	"github.com/playverse/contest-system/models"
	"github.com/playverse/contest-system/repositories"
	"github.com/playverse/contest-system/services"
)

type ContestHandler struct {
	contestService services.ContestService
}

func NewContestHandler(contestService services.ContestService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
	}
}

func (h *ContestHandler) CreateContestHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateContestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContestHandler) GetContestHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.GetContestDetails(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContestHandler) ListContestsHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListContestsFilter{}

	if game := r.URL.Query().Get("game"); game != "" {
		filter.Game = &game
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.ContestStatus(statusStr)
		filter.Status = &status
	}
	if matchStatusStr := r.URL.Query().Get("match_status"); matchStatusStr != "" {
		matchStatus := models.MatchStatus(matchStatusStr)
		filter.MatchStatus = &matchStatus
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	contests, err := h.contestService.ListContests(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContestHandler) UpdateContestStatusHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.ContestStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.contestService.UpdateContestStatus(r.Context(), contestID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContestHandler) DeleteContestHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.contestService.DeleteContest(r.Context(), contestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

const maxBannerSize = 5 << 20 // 5MB

func (h *ContestHandler) UploadBannerHandler(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBannerSize)
	if err := r.ParseMultipartForm(maxBannerSize); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form, banner must be at most 5MB"))
		return
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, errors.New("banner file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		badRequestResponse(w, r, errors.New("banner must be a png, jpeg or webp image"))
		return
	}

	contest, err := h.contestService.UploadBanner(r.Context(), contestID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
