package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"

	"github.com/placedir/server/internal/api/pagination"
	"github.com/placedir/server/internal/domain/places"
	"github.com/placedir/server/internal/metrics"
)

// searchColumns is the eager projection for one result row: place, location,
// parking, and contact come back in the same round trip so nothing downstream
// needs a lazy load.
const searchColumns = `p.id, p.ulid, p.name, p.description, p.category, p.place_type,
       p.is_active, p.approval_status, p.registration_status,
       p.rating_average, p.review_count, p.created_at,
       l.full_address, l.latitude, l.longitude,
       pk.available, pk.parking_type, c.phone`

const searchJoins = `  FROM places p
  LEFT JOIN place_locations l ON l.place_id = p.id
  LEFT JOIN place_parking pk ON pk.place_id = p.id
  LEFT JOIN place_contacts c ON c.place_id = p.id`

func (r *SearchRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Search runs the general filter path with keyset pagination. Requests with
// keyword ids are routed through the tag join, which groups by place to
// collapse the duplicate rows a multi-tag match produces.
func (r *SearchRepository) Search(ctx context.Context, req places.SearchRequest) (result places.SearchResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("search_places", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	builder := &whereBuilder{}
	applySearchFilters(builder, req)

	joins := searchJoins
	groupBy := ""
	if len(req.KeywordIDs) > 0 {
		joins += "\n  JOIN place_keywords x ON x.place_id = p.id"
		builder.where("x.keyword_id = ANY(?)", req.KeywordIDs)
		groupBy = "\n GROUP BY p.id, l.place_id, pk.place_id, c.place_id"
	}

	strategy, hasStrategy := sortStrategies[req.SortBy]

	if req.Cursor != "" {
		cursor, decodeErr := pagination.DecodeSearchCursor(req.Cursor)
		if decodeErr != nil {
			return places.SearchResult{}, decodeErr
		}
		if matchErr := cursor.Matches(string(req.SortBy), string(req.SortDirection)); matchErr != nil {
			return places.SearchResult{}, matchErr
		}
		if hasStrategy {
			if seekErr := strategy.appendSeek(builder, cursor, req.SortDirection); seekErr != nil {
				return places.SearchResult{}, seekErr
			}
		} else {
			builder.where("p.id > ?", cursor.LastID)
		}
	}

	orderBy := "p.id ASC"
	if hasStrategy {
		orderBy = strategy.orderBy(req.SortDirection)
	}

	limitPlusOne := req.Size + 1
	query := fmt.Sprintf("SELECT %s\n%s\n WHERE %s%s\n ORDER BY %s\n LIMIT %s",
		searchColumns, joins, builder.clause(), groupBy, orderBy, builder.arg(limitPlusOne))

	items, err := r.queryResults(ctx, query, builder.args)
	if err != nil {
		return places.SearchResult{}, fmt.Errorf("search places: %w", err)
	}

	if len(items) > req.Size {
		items = items[:req.Size]
		result.HasNext = true
		last := items[len(items)-1]
		lastValue := ""
		if hasStrategy {
			lastValue = strategy.cursorValue(last)
		}
		result.NextCursor = pagination.EncodeSearchCursor(string(req.SortBy), string(req.SortDirection), last.ID, lastValue)
	}

	if err = r.enrich(ctx, items); err != nil {
		return places.SearchResult{}, err
	}
	result.Items = items
	return result, nil
}

// SearchNearby is the radius path: candidates come back ordered by computed
// distance, then full rows are re-fetched and put back into distance order
// (a plain id = ANY fetch does not preserve it). Location search has
// first-page-only semantics, so no cursor is minted; HasNext still reports
// whether more candidates sit inside the radius.
func (r *SearchRepository) SearchNearby(ctx context.Context, req places.SearchRequest) (result places.SearchResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("search_places_nearby", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	builder := &whereBuilder{}
	center := fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography",
		builder.arg(*req.Longitude), builder.arg(*req.Latitude))
	applyBaselineFilters(builder, req)
	builder.where("ST_DWithin(l.geom, "+center+", ?)", float64(req.RadiusMeters))

	query := fmt.Sprintf(`SELECT p.id, ST_Distance(l.geom, %s) AS distance
  FROM places p
  JOIN place_locations l ON l.place_id = p.id
 WHERE %s
 ORDER BY distance ASC, p.id ASC
 LIMIT %s`, center, builder.clause(), builder.arg(req.Size+1))

	rows, err := r.queryer().Query(ctx, query, builder.args...)
	if err != nil {
		return places.SearchResult{}, fmt.Errorf("radius search: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		id       int64
		distance float64
	}
	candidates := make([]candidate, 0, req.Size+1)
	for rows.Next() {
		var c candidate
		if err = rows.Scan(&c.id, &c.distance); err != nil {
			return places.SearchResult{}, fmt.Errorf("scan radius candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return places.SearchResult{}, fmt.Errorf("iterate radius candidates: %w", err)
	}

	if len(candidates) > req.Size {
		candidates = candidates[:req.Size]
		result.HasNext = true
	}
	if len(candidates) == 0 {
		result.Items = []places.Result{}
		return result, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}

	fetchBuilder := &whereBuilder{}
	fetchBuilder.where("p.id = ANY(?)", ids)
	fetchQuery := fmt.Sprintf("SELECT %s\n%s\n WHERE %s", searchColumns, searchJoins, fetchBuilder.clause())
	fetched, err := r.queryResults(ctx, fetchQuery, fetchBuilder.args)
	if err != nil {
		return places.SearchResult{}, fmt.Errorf("fetch radius rows: %w", err)
	}

	byID := make(map[int64]places.Result, len(fetched))
	for _, item := range fetched {
		byID[item.ID] = item
	}
	items := make([]places.Result, 0, len(candidates))
	for _, c := range candidates {
		item, ok := byID[c.id]
		if !ok {
			// Row deleted between the two queries; degrade by omission.
			continue
		}
		distance := c.distance
		item.Distance = &distance
		items = append(items, item)
	}

	if err = r.enrich(ctx, items); err != nil {
		return places.SearchResult{}, err
	}
	result.Items = items
	return result, nil
}

// Count applies the same filter table with no ordering, pagination, or
// enrichment. Keyword ids collapse to a membership test here since no rows
// are materialized.
func (r *SearchRepository) Count(ctx context.Context, req places.SearchRequest) (count int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("count_places", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	builder := &whereBuilder{}
	applySearchFilters(builder, req)
	if len(req.KeywordIDs) > 0 {
		builder.where("EXISTS (SELECT 1 FROM place_keywords x WHERE x.place_id = p.id AND x.keyword_id = ANY(?))", req.KeywordIDs)
	}

	query := fmt.Sprintf("SELECT count(*)\n%s\n WHERE %s", searchJoins, builder.clause())
	if err = r.queryer().QueryRow(ctx, query, builder.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return count, nil
}

type searchRow struct {
	ID                 int64
	ULID               string
	Name               string
	Description        pgtype.Text
	Category           pgtype.Text
	PlaceType          pgtype.Text
	IsActive           bool
	ApprovalStatus     string
	RegistrationStatus string
	RatingAverage      pgtype.Float8
	ReviewCount        int32
	CreatedAt          pgtype.Timestamptz
	FullAddress        pgtype.Text
	Latitude           pgtype.Float8
	Longitude          pgtype.Float8
	ParkingAvailable   pgtype.Bool
	ParkingType        pgtype.Text
	Phone              pgtype.Text
}

func (r *SearchRepository) queryResults(ctx context.Context, query string, args []any) ([]places.Result, error) {
	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]places.Result, 0, 8)
	for rows.Next() {
		var row searchRow
		if err := rows.Scan(
			&row.ID,
			&row.ULID,
			&row.Name,
			&row.Description,
			&row.Category,
			&row.PlaceType,
			&row.IsActive,
			&row.ApprovalStatus,
			&row.RegistrationStatus,
			&row.RatingAverage,
			&row.ReviewCount,
			&row.CreatedAt,
			&row.FullAddress,
			&row.Latitude,
			&row.Longitude,
			&row.ParkingAvailable,
			&row.ParkingType,
			&row.Phone,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}

		item := places.Result{
			ID:                 row.ID,
			ULID:               row.ULID,
			Name:               row.Name,
			Description:        row.Description.String,
			Category:           row.Category.String,
			PlaceType:          row.PlaceType.String,
			IsActive:           row.IsActive,
			ApprovalStatus:     places.ApprovalStatus(row.ApprovalStatus),
			RegistrationStatus: places.RegistrationStatus(row.RegistrationStatus),
			RatingAverage:      row.RatingAverage.Float64,
			ReviewCount:        int(row.ReviewCount),
			FullAddress:        row.FullAddress.String,
			Latitude:           row.Latitude.Float64,
			Longitude:          row.Longitude.Float64,
			ParkingAvailable:   row.ParkingAvailable.Bool,
			ParkingType:        row.ParkingType.String,
			Contact:            row.Phone.String,
		}
		if row.CreatedAt.Valid {
			item.CreatedAt = row.CreatedAt.Time
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// enrich attaches space counts and ids, the first image, and keyword names
// to a result page in three batched queries keyed by the full id set. One
// query per concern, never one per row. A missing row in any of the three
// defaults to zero/empty.
func (r *SearchRepository) enrich(ctx context.Context, items []places.Result) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	var (
		spaceIDs   map[int64][]int64
		thumbnails map[int64]string
		keywords   map[int64][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spaceIDs, err = r.loadSpaceIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		thumbnails, err = r.loadThumbnails(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		keywords, err = r.loadKeywordNames(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("enrich search results: %w", err)
	}

	for i := range items {
		id := items[i].ID
		items[i].RelatedIDs = spaceIDs[id]
		items[i].RelatedCount = len(spaceIDs[id])
		items[i].ThumbnailURL = thumbnails[id]
		items[i].Keywords = keywords[id]
	}
	return nil
}

func (r *SearchRepository) loadSpaceIDs(ctx context.Context, ids []int64) (map[int64][]int64, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT place_id, array_agg(id ORDER BY id)
  FROM place_spaces
 WHERE place_id = ANY($1)
 GROUP BY place_id
`, ids)
	if err != nil {
		return nil, fmt.Errorf("load space ids: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]int64)
	for rows.Next() {
		var placeID int64
		var spaceIDs []int64
		if err := rows.Scan(&placeID, &spaceIDs); err != nil {
			return nil, fmt.Errorf("scan space ids: %w", err)
		}
		result[placeID] = spaceIDs
	}
	return result, rows.Err()
}

func (r *SearchRepository) loadThumbnails(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT DISTINCT ON (place_id) place_id, url
  FROM place_images
 WHERE place_id = ANY($1)
 ORDER BY place_id, sort_order ASC, id ASC
`, ids)
	if err != nil {
		return nil, fmt.Errorf("load thumbnails: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]string)
	for rows.Next() {
		var placeID int64
		var url string
		if err := rows.Scan(&placeID, &url); err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		result[placeID] = url
	}
	return result, rows.Err()
}

func (r *SearchRepository) loadKeywordNames(ctx context.Context, ids []int64) (map[int64][]string, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT pk.place_id, array_agg(k.name ORDER BY k.name)
  FROM place_keywords pk
  JOIN keywords k ON k.id = pk.keyword_id
 WHERE pk.place_id = ANY($1)
 GROUP BY pk.place_id
`, ids)
	if err != nil {
		return nil, fmt.Errorf("load keyword names: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]string)
	for rows.Next() {
		var placeID int64
		var names []string
		if err := rows.Scan(&placeID, &names); err != nil {
			return nil, fmt.Errorf("scan keyword names: %w", err)
		}
		result[placeID] = names
	}
	return result, rows.Err()
}

var _ places.SearchRepository = (*SearchRepository)(nil)
