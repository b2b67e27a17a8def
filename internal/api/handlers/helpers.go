package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/placedir/server/internal/api/pagination"
	"github.com/placedir/server/internal/api/problem"
	"github.com/placedir/server/internal/domain/places"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// writeSearchError maps domain errors onto problem responses: filter and
// cursor problems are the caller's fault, everything else is ours.
func writeSearchError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var filterErr places.FilterError
	switch {
	case errors.As(err, &filterErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(map[string]any{filterErr.Field: filterErr.Message}))
	case errors.Is(err, pagination.ErrInvalidCursor), errors.Is(err, pagination.ErrCursorMismatch):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeInvalidCursor, "Invalid cursor", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

type resultJSON struct {
	ID                 string   `json:"id"`
	PlaceName          string   `json:"placeName"`
	Description        string   `json:"description,omitempty"`
	Category           string   `json:"category,omitempty"`
	PlaceType          string   `json:"placeType,omitempty"`
	RatingAverage      float64  `json:"ratingAverage"`
	ReviewCount        int      `json:"reviewCount"`
	IsActive           bool     `json:"isActive"`
	ApprovalStatus     string   `json:"approvalStatus"`
	RegistrationStatus string   `json:"registrationStatus"`
	FullAddress        string   `json:"fullAddress,omitempty"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	ParkingAvailable   bool     `json:"parkingAvailable"`
	ParkingType        string   `json:"parkingType,omitempty"`
	Contact            string   `json:"contact,omitempty"`
	ThumbnailURL       string   `json:"thumbnailUrl,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	RelatedCount       int      `json:"relatedCount"`
	RelatedIDs         []int64  `json:"relatedIds,omitempty"`
	Distance           *float64 `json:"distance,omitempty"`
	CreatedAt          string   `json:"createdAt"`
}

type metadataJSON struct {
	SearchTimeMillis int64    `json:"searchTimeMillis"`
	SortBy           string   `json:"sortBy"`
	SortDirection    string   `json:"sortDirection"`
	CenterLat        *float64 `json:"centerLat,omitempty"`
	CenterLng        *float64 `json:"centerLng,omitempty"`
	RadiusInMeters   int      `json:"radiusInMeters,omitempty"`
}

type searchResponseJSON struct {
	Items      []resultJSON `json:"items"`
	HasNext    bool         `json:"hasNext"`
	NextCursor string       `json:"nextCursor,omitempty"`
	Count      int          `json:"count"`
	Metadata   metadataJSON `json:"metadata"`
}

func buildSearchResponse(resp places.SearchResponse) searchResponseJSON {
	items := make([]resultJSON, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, resultJSON{
			ID:                 item.ULID,
			PlaceName:          item.Name,
			Description:        item.Description,
			Category:           item.Category,
			PlaceType:          item.PlaceType,
			RatingAverage:      item.RatingAverage,
			ReviewCount:        item.ReviewCount,
			IsActive:           item.IsActive,
			ApprovalStatus:     string(item.ApprovalStatus),
			RegistrationStatus: string(item.RegistrationStatus),
			FullAddress:        item.FullAddress,
			Latitude:           item.Latitude,
			Longitude:          item.Longitude,
			ParkingAvailable:   item.ParkingAvailable,
			ParkingType:        item.ParkingType,
			Contact:            item.Contact,
			ThumbnailURL:       item.ThumbnailURL,
			Keywords:           item.Keywords,
			RelatedCount:       item.RelatedCount,
			RelatedIDs:         item.RelatedIDs,
			Distance:           item.Distance,
			CreatedAt:          item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return searchResponseJSON{
		Items:      items,
		HasNext:    resp.HasNext,
		NextCursor: resp.NextCursor,
		Count:      resp.Count,
		Metadata: metadataJSON{
			SearchTimeMillis: resp.Metadata.SearchTimeMillis,
			SortBy:           string(resp.Metadata.SortBy),
			SortDirection:    string(resp.Metadata.SortDirection),
			CenterLat:        resp.Metadata.CenterLat,
			CenterLng:        resp.Metadata.CenterLng,
			RadiusInMeters:   resp.Metadata.RadiusMeters,
		},
	}
}

type locationJSON struct {
	Province      string  `json:"province,omitempty"`
	City          string  `json:"city,omitempty"`
	District      string  `json:"district,omitempty"`
	FullAddress   string  `json:"fullAddress,omitempty"`
	AddressDetail string  `json:"addressDetail,omitempty"`
	PostalCode    string  `json:"postalCode,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

type contactJSON struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type parkingJSON struct {
	Available bool   `json:"available"`
	Type      string `json:"type,omitempty"`
}

type imageJSON struct {
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

type keywordJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type placeJSON struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	Category           string        `json:"category,omitempty"`
	PlaceType          string        `json:"placeType,omitempty"`
	IsActive           bool          `json:"isActive"`
	ApprovalStatus     string        `json:"approvalStatus"`
	RegistrationStatus string        `json:"registrationStatus"`
	RatingAverage      float64       `json:"ratingAverage"`
	ReviewCount        int           `json:"reviewCount"`
	Location           locationJSON  `json:"location"`
	Contact            contactJSON   `json:"contact"`
	Parking            parkingJSON   `json:"parking"`
	Images             []imageJSON   `json:"images,omitempty"`
	Keywords           []keywordJSON `json:"keywords,omitempty"`
	CreatedAt          string        `json:"createdAt"`
	UpdatedAt          string        `json:"updatedAt"`
}

func buildPlaceResponse(place *places.Place) placeJSON {
	images := make([]imageJSON, 0, len(place.Images))
	for _, image := range place.Images {
		images = append(images, imageJSON{URL: image.URL, SortOrder: image.SortOrder})
	}
	keywords := make([]keywordJSON, 0, len(place.Keywords))
	for _, keyword := range place.Keywords {
		keywords = append(keywords, keywordJSON{ID: keyword.ID, Name: keyword.Name})
	}
	return placeJSON{
		ID:                 place.ULID,
		Name:               place.Name,
		Description:        place.Description,
		Category:           place.Category,
		PlaceType:          place.PlaceType,
		IsActive:           place.IsActive,
		ApprovalStatus:     string(place.ApprovalStatus),
		RegistrationStatus: string(place.RegistrationStatus),
		RatingAverage:      place.RatingAverage,
		ReviewCount:        place.ReviewCount,
		Location: locationJSON{
			Province:      place.Location.Province,
			City:          place.Location.City,
			District:      place.Location.District,
			FullAddress:   place.Location.FullAddress,
			AddressDetail: place.Location.AddressDetail,
			PostalCode:    place.Location.PostalCode,
			Latitude:      place.Location.Latitude,
			Longitude:     place.Location.Longitude,
		},
		Contact: contactJSON{
			Phone:   place.Contact.Phone,
			Email:   place.Contact.Email,
			Website: place.Contact.Website,
		},
		Parking: parkingJSON{
			Available: place.Parking.Available,
			Type:      place.Parking.Type,
		},
		Images:    images,
		Keywords:  keywords,
		CreatedAt: place.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: place.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
