package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/placedir/server/internal/api/pagination"
	"github.com/placedir/server/internal/domain/ids"
	"github.com/placedir/server/internal/metrics"
	"github.com/placedir/server/internal/sanitize"
)

// Actor identifies the caller of a write operation.
type Actor struct {
	ID    string
	Admin bool
}

type ServiceOptions struct {
	// DegradeOnStoreError converts store failures on the search and count
	// paths into empty successful responses instead of surfacing them.
	// Callers then cannot distinguish "no matches" from "backend down"; the
	// degraded response is logged and counted so operators still can.
	DegradeOnStoreError bool
}

type Service struct {
	repo     Repository
	search   SearchRepository
	keywords KeywordRepository
	degrade  bool
}

func NewService(repo Repository, search SearchRepository, keywords KeywordRepository, opts ServiceOptions) *Service {
	return &Service{
		repo:     repo,
		search:   search,
		keywords: keywords,
		degrade:  opts.DegradeOnStoreError,
	}
}

// Search runs the general discovery path; requests with a complete center
// point are routed to the radius search.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if err := req.Normalize(); err != nil {
		return SearchResponse{}, err
	}

	start := time.Now()
	mode := "standard"

	var result SearchResult
	var err error
	switch {
	case req.Geospatial():
		mode = "location"
		result, err = s.search.SearchNearby(ctx, req)
	case len(req.KeywordIDs) > 0:
		mode = "keyword"
		result, err = s.search.Search(ctx, req)
	default:
		result, err = s.search.Search(ctx, req)
	}
	metrics.SearchesTotal.WithLabelValues(mode).Inc()

	if err != nil {
		if isClientError(err) {
			return SearchResponse{}, err
		}
		if !s.degrade {
			return SearchResponse{}, fmt.Errorf("search places: %w", err)
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("mode", mode).Msg("search degraded to empty result")
		metrics.SearchesDegraded.WithLabelValues(mode).Inc()
		result = SearchResult{}
	}

	response := SearchResponse{
		Items:      result.Items,
		HasNext:    result.HasNext,
		NextCursor: result.NextCursor,
		Count:      len(result.Items),
		Metadata: Metadata{
			SearchTimeMillis: time.Since(start).Milliseconds(),
			SortBy:           req.SortBy,
			SortDirection:    req.SortDirection,
		},
	}
	if req.Geospatial() {
		response.Metadata.CenterLat = req.Latitude
		response.Metadata.CenterLng = req.Longitude
		response.Metadata.RadiusMeters = req.RadiusMeters
	}
	return response, nil
}

// SearchByLocation is the radius-search entry point. Distance ordering is
// forced; continuation is a fresh request, not a cursor.
func (s *Service) SearchByLocation(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return SearchResponse{}, FilterError{Field: "latitude,longitude", Message: "latitude and longitude are required"}
	}
	req.SortBy = SortByDistance
	req.SortDirection = SortAsc
	req.Cursor = ""
	return s.Search(ctx, req)
}

// SearchByRegion requires at least one region component; province, city, and
// district narrow independently.
func (s *Service) SearchByRegion(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.Province == "" && req.City == "" && req.District == "" {
		return SearchResponse{}, FilterError{Field: "province,city,district", Message: "at least one region field is required"}
	}
	return s.Search(ctx, req)
}

// Popular is the review-count ranking shortcut.
func (s *Service) Popular(ctx context.Context, size int, cursor string) (SearchResponse, error) {
	return s.Search(ctx, SearchRequest{
		SortBy:        SortByReviewCount,
		SortDirection: SortDesc,
		Size:          size,
		Cursor:        cursor,
		IsActive:      true,
	})
}

// Recent is the recency ranking shortcut.
func (s *Service) Recent(ctx context.Context, size int, cursor string) (SearchResponse, error) {
	return s.Search(ctx, SearchRequest{
		SortBy:        SortByCreatedAt,
		SortDirection: SortDesc,
		Size:          size,
		Cursor:        cursor,
		IsActive:      true,
	})
}

// Count returns how many rows the filter would match, without materializing
// them. Store failures degrade to zero under the same policy as Search.
func (s *Service) Count(ctx context.Context, req SearchRequest) (int64, error) {
	if err := req.Normalize(); err != nil {
		return 0, err
	}
	count, err := s.search.Count(ctx, req)
	if err != nil {
		if isClientError(err) {
			return 0, err
		}
		if !s.degrade {
			return 0, fmt.Errorf("count places: %w", err)
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("count degraded to zero")
		metrics.SearchesDegraded.WithLabelValues("count").Inc()
		return 0, nil
	}
	return count, nil
}

func isClientError(err error) bool {
	var filterErr FilterError
	return errors.As(err, &filterErr) ||
		errors.Is(err, pagination.ErrInvalidCursor) ||
		errors.Is(err, pagination.ErrCursorMismatch)
}

// RegisterInput is the registration payload after transport decoding.
type RegisterInput struct {
	Name               string
	Description        string
	Category           string
	PlaceType          string
	RegistrationStatus RegistrationStatus
	Location           Location
	Contact            Contact
	Parking            Parking
	KeywordIDs         []int64
	ImageURLs          []string
}

// Register creates a pending, active place owned by the caller. Names are
// stripped to plain text, descriptions keep limited formatting.
func (s *Service) Register(ctx context.Context, ownerID string, input RegisterInput) (*Place, error) {
	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint place ulid: %w", err)
	}

	registration := input.RegistrationStatus
	if registration == "" {
		registration = Registered
	}

	place := &Place{
		ULID:               ulid,
		OwnerID:            ownerID,
		Name:               sanitize.Text(input.Name),
		Description:        sanitize.HTML(input.Description),
		Category:           sanitize.Text(input.Category),
		PlaceType:          sanitize.Text(input.PlaceType),
		IsActive:           true,
		ApprovalStatus:     ApprovalPending,
		RegistrationStatus: registration,
		Location:           input.Location,
		Contact:            input.Contact,
		Parking:            input.Parking,
	}
	if err := s.repo.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}

	if len(input.KeywordIDs) > 0 {
		if err := s.keywords.SetPlaceKeywords(ctx, place.ID, input.KeywordIDs); err != nil {
			return nil, fmt.Errorf("attach keywords: %w", err)
		}
	}
	if len(input.ImageURLs) > 0 {
		if err := s.repo.ReplaceImages(ctx, place.ID, input.ImageURLs); err != nil {
			return nil, fmt.Errorf("attach images: %w", err)
		}
	}
	return s.repo.GetByULID(ctx, place.ULID)
}

func (s *Service) Get(ctx context.Context, ulid string) (*Place, error) {
	return s.repo.GetByULID(ctx, ids.Normalize(ulid))
}

// Update rewrites the mutable fields of a place the actor owns.
func (s *Service) Update(ctx context.Context, actor Actor, ulid string, input RegisterInput) (*Place, error) {
	place, err := s.owned(ctx, actor, ulid)
	if err != nil {
		return nil, err
	}

	place.Name = sanitize.Text(input.Name)
	place.Description = sanitize.HTML(input.Description)
	place.Category = sanitize.Text(input.Category)
	place.PlaceType = sanitize.Text(input.PlaceType)
	place.Location = input.Location
	place.Contact = input.Contact
	place.Parking = input.Parking
	if input.RegistrationStatus != "" {
		place.RegistrationStatus = input.RegistrationStatus
	}

	if err := s.repo.Update(ctx, place); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	if input.KeywordIDs != nil {
		if err := s.keywords.SetPlaceKeywords(ctx, place.ID, input.KeywordIDs); err != nil {
			return nil, fmt.Errorf("replace keywords: %w", err)
		}
	}
	return s.repo.GetByULID(ctx, place.ULID)
}

func (s *Service) Approve(ctx context.Context, ulid string) error {
	return s.setApproval(ctx, ulid, ApprovalApproved)
}

func (s *Service) Reject(ctx context.Context, ulid string) error {
	return s.setApproval(ctx, ulid, ApprovalRejected)
}

func (s *Service) setApproval(ctx context.Context, ulid string, status ApprovalStatus) error {
	place, err := s.repo.GetByULID(ctx, ids.Normalize(ulid))
	if err != nil {
		return err
	}
	return s.repo.SetApproval(ctx, place.ID, status)
}

func (s *Service) SetActive(ctx context.Context, actor Actor, ulid string, active bool) error {
	place, err := s.owned(ctx, actor, ulid)
	if err != nil {
		return err
	}
	return s.repo.SetActive(ctx, place.ID, active)
}

func (s *Service) SoftDelete(ctx context.Context, actor Actor, ulid string) error {
	place, err := s.owned(ctx, actor, ulid)
	if err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, place.ID)
}

// ReplaceImages swaps the full ordered image list; the first URL becomes the
// search thumbnail.
func (s *Service) ReplaceImages(ctx context.Context, actor Actor, ulid string, urls []string) error {
	place, err := s.owned(ctx, actor, ulid)
	if err != nil {
		return err
	}
	return s.repo.ReplaceImages(ctx, place.ID, urls)
}

func (s *Service) ListKeywords(ctx context.Context) ([]Keyword, error) {
	return s.keywords.List(ctx)
}

func (s *Service) owned(ctx context.Context, actor Actor, ulid string) (*Place, error) {
	place, err := s.repo.GetByULID(ctx, ids.Normalize(ulid))
	if err != nil {
		return nil, err
	}
	if !actor.Admin && place.OwnerID != actor.ID {
		return nil, ErrForbidden
	}
	return place, nil
}
