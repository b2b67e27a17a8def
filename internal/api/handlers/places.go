package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/placedir/server/internal/api/middleware"
	"github.com/placedir/server/internal/api/problem"
	"github.com/placedir/server/internal/domain/ids"
	"github.com/placedir/server/internal/domain/places"
)

type PlacesHandler struct {
	Service *places.Service
	Env     string
}

func NewPlacesHandler(service *places.Service, env string) *PlacesHandler {
	return &PlacesHandler{Service: service, Env: env}
}

type placeBody struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	PlaceType          string       `json:"placeType"`
	RegistrationStatus string       `json:"registrationStatus"`
	Location           locationJSON `json:"location"`
	Contact            contactJSON  `json:"contact"`
	Parking            parkingJSON  `json:"parking"`
	KeywordIDs         []int64      `json:"keywordIds"`
	ImageURLs          []string     `json:"imageUrls"`
}

func (b placeBody) toInput() (places.RegisterInput, error) {
	if b.Name == "" {
		return places.RegisterInput{}, places.FilterError{Field: "name", Message: "required"}
	}
	registration := places.RegistrationStatus("")
	if b.RegistrationStatus != "" {
		parsed, err := places.ParseRegistrationStatus(b.RegistrationStatus)
		if err != nil {
			return places.RegisterInput{}, places.FilterError{Field: "registrationStatus", Message: err.Error()}
		}
		registration = parsed
	}
	return places.RegisterInput{
		Name:               b.Name,
		Description:        b.Description,
		Category:           b.Category,
		PlaceType:          b.PlaceType,
		RegistrationStatus: registration,
		Location: places.Location{
			Province:      b.Location.Province,
			City:          b.Location.City,
			District:      b.Location.District,
			FullAddress:   b.Location.FullAddress,
			AddressDetail: b.Location.AddressDetail,
			PostalCode:    b.Location.PostalCode,
			Latitude:      b.Location.Latitude,
			Longitude:     b.Location.Longitude,
		},
		Contact: places.Contact{
			Phone:   b.Contact.Phone,
			Email:   b.Contact.Email,
			Website: b.Contact.Website,
		},
		Parking: places.Parking{
			Available: b.Parking.Available,
			Type:      b.Parking.Type,
		},
		KeywordIDs: b.KeywordIDs,
		ImageURLs:  b.ImageURLs,
	}, nil
}

func (h *PlacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body placeBody
	if err := decodeJSON(r, w, &body); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	input, err := body.toInput()
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}

	place, err := h.Service.Register(r.Context(), actor.ID, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildPlaceResponse(place))
}

func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	place, err := h.Service.Get(r.Context(), ulid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildPlaceResponse(place))
}

func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	var body placeBody
	if err := decodeJSON(r, w, &body); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	input, err := body.toInput()
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}

	place, err := h.Service.Update(r.Context(), actor, ulid, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildPlaceResponse(place))
}

func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	if err := h.Service.SoftDelete(r.Context(), actor, ulid); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlacesHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *PlacesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *PlacesHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	if err := h.Service.SetActive(r.Context(), actor, ulid, active); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imagesBody struct {
	ImageURLs []string `json:"imageUrls"`
}

func (h *PlacesHandler) ReplaceImages(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	var body imagesBody
	if err := decodeJSON(r, w, &body); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.Service.ReplaceImages(r.Context(), actor, ulid, body.ImageURLs); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Approve and Reject are admin-only; the router guards them.
func (h *PlacesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.Service.Approve)
}

func (h *PlacesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.Service.Reject)
}

func (h *PlacesHandler) moderate(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ulid string) error) {
	ulid, ok := h.pathULID(w, r)
	if !ok {
		return
	}
	if err := apply(r.Context(), ulid); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlacesHandler) actor(w http.ResponseWriter, r *http.Request) (places.Actor, bool) {
	actor, ok := middleware.Actor(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return places.Actor{}, false
	}
	return actor, true
}

func (h *PlacesHandler) pathULID(w http.ResponseWriter, r *http.Request) (string, bool) {
	value := r.PathValue("id")
	if err := ids.ValidateULID(value); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]any{"id": "must be a 26-character ULID"}))
		return "", false
	}
	return ids.Normalize(value), true
}

func (h *PlacesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, places.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, places.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.Env)
	default:
		writeSearchError(w, r, err, h.Env)
	}
}
