package places

import "context"

// Repository is the write-side store for the place aggregate.
type Repository interface {
	Create(ctx context.Context, place *Place) error
	GetByULID(ctx context.Context, ulid string) (*Place, error)
	Update(ctx context.Context, place *Place) error
	SetApproval(ctx context.Context, id int64, status ApprovalStatus) error
	SetActive(ctx context.Context, id int64, active bool) error
	SoftDelete(ctx context.Context, id int64) error
	ReplaceImages(ctx context.Context, id int64, urls []string) error
}

// SearchRepository is the read-side discovery engine. Search covers the
// general filter path (including the dedicated keyword-id path); SearchNearby
// is the geospatial radius path with distance ordering.
type SearchRepository interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	SearchNearby(ctx context.Context, req SearchRequest) (SearchResult, error)
	Count(ctx context.Context, req SearchRequest) (int64, error)
}

// KeywordRepository manages the keyword master data and place associations.
type KeywordRepository interface {
	List(ctx context.Context) ([]Keyword, error)
	SetPlaceKeywords(ctx context.Context, placeID int64, keywordIDs []int64) error
}
