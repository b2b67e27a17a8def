package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/placedir/server/internal/domain/places"
	"github.com/placedir/server/internal/metrics"
)

func (r *PlaceRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

// inTx runs fn inside the active transaction, or starts one for the call.
// Multi-table writes on the place aggregate must not partially apply.
func (r *PlaceRepository) inTx(ctx context.Context, fn func(q queryer) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Create inserts the place row and its location, contact, and parking rows in
// one transaction, then fills in the generated id and timestamps.
func (r *PlaceRepository) Create(ctx context.Context, place *places.Place) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("create_place", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.inTx(ctx, func(q queryer) error {
		if err := q.QueryRow(ctx, `
INSERT INTO places (ulid, owner_id, name, description, category, place_type,
                    is_active, approval_status, registration_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at, updated_at
`,
			place.ULID, place.OwnerID, place.Name, place.Description,
			place.Category, place.PlaceType, place.IsActive,
			string(place.ApprovalStatus), string(place.RegistrationStatus),
		).Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt); err != nil {
			return fmt.Errorf("insert place: %w", err)
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_locations (place_id, province, city, district, full_address,
                             address_detail, postal_code, latitude, longitude, geom)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
        ST_SetSRID(ST_MakePoint($9, $8), 4326)::geography)
`,
			place.ID, place.Location.Province, place.Location.City,
			place.Location.District, place.Location.FullAddress,
			place.Location.AddressDetail, place.Location.PostalCode,
			place.Location.Latitude, place.Location.Longitude,
		); err != nil {
			return fmt.Errorf("insert place location: %w", err)
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_contacts (place_id, phone, email, website)
VALUES ($1, $2, $3, $4)
`, place.ID, place.Contact.Phone, place.Contact.Email, place.Contact.Website); err != nil {
			return fmt.Errorf("insert place contact: %w", err)
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_parking (place_id, available, parking_type)
VALUES ($1, $2, $3)
`, place.ID, place.Parking.Available, place.Parking.Type); err != nil {
			return fmt.Errorf("insert place parking: %w", err)
		}
		return nil
	})
	return err
}

// GetByULID loads the full aggregate, soft-deleted rows excluded.
func (r *PlaceRepository) GetByULID(ctx context.Context, ulid string) (place *places.Place, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_place", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		p             places.Place
		description   pgtype.Text
		category      pgtype.Text
		placeType     pgtype.Text
		province      pgtype.Text
		city          pgtype.Text
		district      pgtype.Text
		fullAddress   pgtype.Text
		addressDetail pgtype.Text
		postalCode    pgtype.Text
		latitude      pgtype.Float8
		longitude     pgtype.Float8
		phone         pgtype.Text
		email         pgtype.Text
		website       pgtype.Text
		parkAvailable pgtype.Bool
		parkType      pgtype.Text
	)

	err = r.queryer().QueryRow(ctx, `
SELECT p.id, p.ulid, p.owner_id, p.name, p.description, p.category, p.place_type,
       p.is_active, p.approval_status, p.registration_status,
       p.rating_average, p.review_count, p.created_at, p.updated_at,
       l.province, l.city, l.district, l.full_address, l.address_detail,
       l.postal_code, l.latitude, l.longitude,
       c.phone, c.email, c.website,
       pk.available, pk.parking_type
  FROM places p
  LEFT JOIN place_locations l ON l.place_id = p.id
  LEFT JOIN place_contacts c ON c.place_id = p.id
  LEFT JOIN place_parking pk ON pk.place_id = p.id
 WHERE p.ulid = $1 AND p.deleted_at IS NULL
`, ulid).Scan(
		&p.ID, &p.ULID, &p.OwnerID, &p.Name, &description, &category, &placeType,
		&p.IsActive, &p.ApprovalStatus, &p.RegistrationStatus,
		&p.RatingAverage, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
		&province, &city, &district, &fullAddress, &addressDetail,
		&postalCode, &latitude, &longitude,
		&phone, &email, &website,
		&parkAvailable, &parkType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, places.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get place by ulid: %w", err)
	}

	p.Description = description.String
	p.Category = category.String
	p.PlaceType = placeType.String
	p.Location = places.Location{
		Province:      province.String,
		City:          city.String,
		District:      district.String,
		FullAddress:   fullAddress.String,
		AddressDetail: addressDetail.String,
		PostalCode:    postalCode.String,
		Latitude:      latitude.Float64,
		Longitude:     longitude.Float64,
	}
	p.Contact = places.Contact{Phone: phone.String, Email: email.String, Website: website.String}
	p.Parking = places.Parking{Available: parkAvailable.Bool, Type: parkType.String}

	if p.Images, err = r.loadImages(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Keywords, err = r.loadKeywords(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaceRepository) loadImages(ctx context.Context, placeID int64) ([]places.Image, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT id, url, sort_order
  FROM place_images
 WHERE place_id = $1
 ORDER BY sort_order ASC, id ASC
`, placeID)
	if err != nil {
		return nil, fmt.Errorf("load place images: %w", err)
	}
	defer rows.Close()

	var images []places.Image
	for rows.Next() {
		var image places.Image
		if err := rows.Scan(&image.ID, &image.URL, &image.SortOrder); err != nil {
			return nil, fmt.Errorf("scan place image: %w", err)
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *PlaceRepository) loadKeywords(ctx context.Context, placeID int64) ([]places.Keyword, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT k.id, k.name
  FROM place_keywords pk
  JOIN keywords k ON k.id = pk.keyword_id
 WHERE pk.place_id = $1
 ORDER BY k.name ASC
`, placeID)
	if err != nil {
		return nil, fmt.Errorf("load place keywords: %w", err)
	}
	defer rows.Close()

	var keywords []places.Keyword
	for rows.Next() {
		var keyword places.Keyword
		if err := rows.Scan(&keyword.ID, &keyword.Name); err != nil {
			return nil, fmt.Errorf("scan place keyword: %w", err)
		}
		keywords = append(keywords, keyword)
	}
	return keywords, rows.Err()
}

// Update rewrites the mutable columns of the place and its satellite rows.
// Satellite rows are upserted so aggregates created before a satellite table
// existed still update cleanly.
func (r *PlaceRepository) Update(ctx context.Context, place *places.Place) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("update_place", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.inTx(ctx, func(q queryer) error {
		tag, err := q.Exec(ctx, `
UPDATE places
   SET name = $2, description = $3, category = $4, place_type = $5,
       registration_status = $6, updated_at = now()
 WHERE id = $1 AND deleted_at IS NULL
`, place.ID, place.Name, place.Description, place.Category,
			place.PlaceType, string(place.RegistrationStatus))
		if err != nil {
			return fmt.Errorf("update place: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return places.ErrNotFound
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_locations (place_id, province, city, district, full_address,
                             address_detail, postal_code, latitude, longitude, geom)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
        ST_SetSRID(ST_MakePoint($9, $8), 4326)::geography)
ON CONFLICT (place_id) DO UPDATE
   SET province = EXCLUDED.province, city = EXCLUDED.city,
       district = EXCLUDED.district, full_address = EXCLUDED.full_address,
       address_detail = EXCLUDED.address_detail, postal_code = EXCLUDED.postal_code,
       latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
       geom = EXCLUDED.geom
`,
			place.ID, place.Location.Province, place.Location.City,
			place.Location.District, place.Location.FullAddress,
			place.Location.AddressDetail, place.Location.PostalCode,
			place.Location.Latitude, place.Location.Longitude,
		); err != nil {
			return fmt.Errorf("upsert place location: %w", err)
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_contacts (place_id, phone, email, website)
VALUES ($1, $2, $3, $4)
ON CONFLICT (place_id) DO UPDATE
   SET phone = EXCLUDED.phone, email = EXCLUDED.email, website = EXCLUDED.website
`, place.ID, place.Contact.Phone, place.Contact.Email, place.Contact.Website); err != nil {
			return fmt.Errorf("upsert place contact: %w", err)
		}

		if _, err := q.Exec(ctx, `
INSERT INTO place_parking (place_id, available, parking_type)
VALUES ($1, $2, $3)
ON CONFLICT (place_id) DO UPDATE
   SET available = EXCLUDED.available, parking_type = EXCLUDED.parking_type
`, place.ID, place.Parking.Available, place.Parking.Type); err != nil {
			return fmt.Errorf("upsert place parking: %w", err)
		}
		return nil
	})
	return err
}

func (r *PlaceRepository) SetApproval(ctx context.Context, id int64, status places.ApprovalStatus) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("set_place_approval", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.queryer().Exec(ctx, `
UPDATE places SET approval_status = $2, updated_at = now()
 WHERE id = $1 AND deleted_at IS NULL
`, id, string(status))
	if err != nil {
		return fmt.Errorf("set place approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) SetActive(ctx context.Context, id int64, active bool) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("set_place_active", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.queryer().Exec(ctx, `
UPDATE places SET is_active = $2, updated_at = now()
 WHERE id = $1 AND deleted_at IS NULL
`, id, active)
	if err != nil {
		return fmt.Errorf("set place active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at; every read path filters on it.
func (r *PlaceRepository) SoftDelete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("soft_delete_place", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.queryer().Exec(ctx, `
UPDATE places SET deleted_at = now(), updated_at = now()
 WHERE id = $1 AND deleted_at IS NULL
`, id)
	if err != nil {
		return fmt.Errorf("soft delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

// ReplaceImages swaps the ordered image list in one transaction. Order in the
// slice is the display order; the first entry is the search thumbnail.
func (r *PlaceRepository) ReplaceImages(ctx context.Context, id int64, urls []string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("replace_place_images", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.inTx(ctx, func(q queryer) error {
		if _, err := q.Exec(ctx, `DELETE FROM place_images WHERE place_id = $1`, id); err != nil {
			return fmt.Errorf("clear place images: %w", err)
		}
		for i, url := range urls {
			if _, err := q.Exec(ctx, `
INSERT INTO place_images (place_id, url, sort_order)
VALUES ($1, $2, $3)
`, id, url, i); err != nil {
				return fmt.Errorf("insert place image: %w", err)
			}
		}
		return nil
	})
	return err
}

var _ places.Repository = (*PlaceRepository)(nil)
