package handlers

import (
	"net/http"

	"github.com/placedir/server/internal/domain/places"
)

type KeywordsHandler struct {
	Service *places.Service
	Env     string
}

func NewKeywordsHandler(service *places.Service, env string) *KeywordsHandler {
	return &KeywordsHandler{Service: service, Env: env}
}

func (h *KeywordsHandler) List(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.Service.ListKeywords(r.Context())
	if err != nil {
		writeSearchError(w, r, err, h.Env)
		return
	}
	items := make([]keywordJSON, 0, len(keywords))
	for _, keyword := range keywords {
		items = append(items, keywordJSON{ID: keyword.ID, Name: keyword.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
