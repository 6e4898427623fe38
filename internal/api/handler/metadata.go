package handler

import (
	"net/http"

	"github.com/qmobility/qmobility/internal/api/models"
	"github.com/qmobility/qmobility/internal/api/response"
	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/extract"
	"github.com/qmobility/qmobility/internal/recommend"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	kb         *city.KnowledgeBase
	thresholds recommend.Thresholds
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(kb *city.KnowledgeBase, thresholds recommend.Thresholds) *MetadataHandler {
	return &MetadataHandler{kb: kb, thresholds: thresholds}
}

// ListCities handles GET /v1/metadata/cities - cities and aliases in
// knowledge-base order.
func (h *MetadataHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	profiles := h.kb.Cities()
	list := models.CityList{
		Items:   make([]models.City, 0, len(profiles)),
		Aliases: []models.CityAlias{},
	}
	for _, p := range profiles {
		list.Items = append(list.Items, models.City{
			Key:             p.Key,
			DisplayName:     p.DisplayName,
			Country:         p.Country,
			Classification:  p.Classification,
			TransitScore:    p.TransitScore,
			BikeScore:       p.BikeScore,
			WalkScore:       p.WalkScore,
			CongestionScore: p.CongestionScore,
			Hubs:            p.Hubs,
			Notes:           p.Notes,
		})
	}
	for _, a := range h.kb.Aliases() {
		list.Aliases = append(list.Aliases, models.CityAlias{Name: a.Name, CityKey: a.CityKey})
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetEnums handles GET /v1/metadata/enums - enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Modes:      make([]models.ModeInfo, 0, len(recommend.AllModes)),
		Rationales: make([]string, 0, len(recommend.AllRationales)),
		Conditions: make([]string, 0, len(extract.AllConditions)),
		Thresholds: models.Thresholds(h.thresholds),
	}
	for _, m := range recommend.AllModes {
		enums.Modes = append(enums.Modes, models.ModeInfo{Mode: string(m), Label: m.Label()})
	}
	for _, ra := range recommend.AllRationales {
		enums.Rationales = append(enums.Rationales, string(ra))
	}
	for _, c := range extract.AllConditions {
		enums.Conditions = append(enums.Conditions, string(c))
	}
	response.JSON(w, r, http.StatusOK, enums)
}
