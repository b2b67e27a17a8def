package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/placedir/server/internal/api/problem"
	"github.com/placedir/server/internal/domain/places"
)

// SearchHandler serves the discovery endpoints. Every endpoint accepts GET
// with query parameters; the main search also accepts POST with a JSON body
// for filter sets that outgrow a query string.
type SearchHandler struct {
	Service *places.Service
	Env     string
}

func NewSearchHandler(service *places.Service, env string) *SearchHandler {
	return &SearchHandler{Service: service, Env: env}
}

// searchBody is the POST shape of a search request.
type searchBody struct {
	Keyword            string   `json:"keyword"`
	PlaceName          string   `json:"placeName"`
	Category           string   `json:"category"`
	PlaceType          string   `json:"placeType"`
	KeywordIDs         []int64  `json:"keywordIds"`
	ParkingAvailable   *bool    `json:"parkingAvailable"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Radius             int      `json:"radius"`
	Province           string   `json:"province"`
	City               string   `json:"city"`
	District           string   `json:"district"`
	RegistrationStatus string   `json:"registrationStatus"`
	IsActive           *bool    `json:"isActive"`
	ApprovalStatus     string   `json:"approvalStatus"`
	SortBy             string   `json:"sortBy"`
	SortDirection      string   `json:"sortDirection"`
	Cursor             string   `json:"cursor"`
	Size               int      `json:"size"`
}

func (b searchBody) toRequest() places.SearchRequest {
	req := places.SearchRequest{
		Keyword:            b.Keyword,
		Name:               b.PlaceName,
		Category:           b.Category,
		PlaceType:          b.PlaceType,
		KeywordIDs:         b.KeywordIDs,
		ParkingAvailable:   b.ParkingAvailable,
		Latitude:           b.Latitude,
		Longitude:          b.Longitude,
		RadiusMeters:       b.Radius,
		Province:           b.Province,
		City:               b.City,
		District:           b.District,
		RegistrationStatus: b.RegistrationStatus,
		IsActive:           true,
		ApprovalStatus:     places.ApprovalStatus(b.ApprovalStatus),
		SortBy:             places.SortBy(b.SortBy),
		SortDirection:      places.SortDirection(b.SortDirection),
		Cursor:             b.Cursor,
		Size:               b.Size,
	}
	if b.IsActive != nil {
		req.IsActive = *b.IsActive
	}
	return req
}

func (h *SearchHandler) request(w http.ResponseWriter, r *http.Request) (places.SearchRequest, bool) {
	if r.Method == http.MethodPost {
		var body searchBody
		if err := decodeJSON(r, w, &body); err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
			return places.SearchRequest{}, false
		}
		return body.toRequest(), true
	}

	req, err := places.ParseSearchRequest(r.URL.Query())
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return places.SearchRequest{}, false
	}
	return req, true
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}
	resp, err := h.Service.Search(r.Context(), req)
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, buildSearchResponse(resp))
}

func (h *SearchHandler) Location(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}
	resp, err := h.Service.SearchByLocation(r.Context(), req)
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, buildSearchResponse(resp))
}

func (h *SearchHandler) Region(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}
	resp, err := h.Service.SearchByRegion(r.Context(), req)
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, buildSearchResponse(resp))
}

func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	size, ok := h.sizeParam(w, r)
	if !ok {
		return
	}
	resp, err := h.Service.Popular(r.Context(), size, r.URL.Query().Get("cursor"))
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, buildSearchResponse(resp))
}

func (h *SearchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	size, ok := h.sizeParam(w, r)
	if !ok {
		return
	}
	resp, err := h.Service.Recent(r.Context(), size, r.URL.Query().Get("cursor"))
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, buildSearchResponse(resp))
}

func (h *SearchHandler) Count(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}
	count, err := h.Service.Count(r.Context(), req)
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *SearchHandler) sizeParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("size"))
	if raw == "" {
		return 0, true
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			places.FilterError{Field: "size", Message: "must be a number"}, h.Env)
		return 0, false
	}
	return size, true
}
