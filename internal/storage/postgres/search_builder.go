package postgres

import (
	"strconv"
	"strings"

	"github.com/placedir/server/internal/domain/places"
)

// whereBuilder assembles a conjunctive WHERE clause with positional
// parameters. Fragments use '?' placeholders which are rewritten to $n in
// append order, so fragments stay readable and injection-safe.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) where(cond string, args ...any) {
	next := len(b.args) + 1
	var sb strings.Builder
	for _, r := range cond {
		if r == '?' {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(next))
			next++
			continue
		}
		sb.WriteRune(r)
	}
	b.conds = append(b.conds, sb.String())
	b.args = append(b.args, args...)
}

// arg binds a value outside the WHERE clause (SELECT or LIMIT expressions)
// and returns its positional placeholder.
func (b *whereBuilder) arg(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) clause() string {
	if len(b.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(b.conds, "\n   AND ")
}

// filterClause is one entry of the table-driven mapping from logical filter
// to SQL fragment. Keeping the mapping in data rather than ad hoc string
// concatenation keeps every filter individually testable.
type filterClause struct {
	name    string
	applies func(req places.SearchRequest) bool
	sql     string
	args    func(req places.SearchRequest) []any
}

// searchFilters covers every general filter. The first three are the
// baseline filters applied regardless of caller input. The keyword-id (tag)
// filter is not here: it runs through the dedicated keyword-search path
// because its join changes result cardinality.
var searchFilters = []filterClause{
	{
		name: "not_deleted",
		sql:  "p.deleted_at IS NULL",
	},
	{
		name: "active",
		sql:  "p.is_active = ?",
		args: func(req places.SearchRequest) []any { return []any{req.IsActive} },
	},
	{
		name: "approval",
		sql:  "p.approval_status = ?",
		args: func(req places.SearchRequest) []any { return []any{string(req.ApprovalStatus)} },
	},
	{
		name:    "keyword",
		applies: func(req places.SearchRequest) bool { return req.Keyword != "" },
		sql:     "(p.name ILIKE '%' || ? || '%' OR p.description ILIKE '%' || ? || '%' OR p.category ILIKE '%' || ? || '%')",
		args: func(req places.SearchRequest) []any {
			return []any{req.Keyword, req.Keyword, req.Keyword}
		},
	},
	{
		name:    "name",
		applies: func(req places.SearchRequest) bool { return req.Name != "" },
		sql:     "p.name ILIKE '%' || ? || '%'",
		args:    func(req places.SearchRequest) []any { return []any{req.Name} },
	},
	{
		name:    "category",
		applies: func(req places.SearchRequest) bool { return req.Category != "" },
		sql:     "p.category = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.Category} },
	},
	{
		name:    "place_type",
		applies: func(req places.SearchRequest) bool { return req.PlaceType != "" },
		sql:     "p.place_type = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.PlaceType} },
	},
	{
		name:    "parking",
		applies: func(req places.SearchRequest) bool { return req.ParkingAvailable != nil },
		sql:     "pk.available = ?",
		args:    func(req places.SearchRequest) []any { return []any{*req.ParkingAvailable} },
	},
	{
		name:    "province",
		applies: func(req places.SearchRequest) bool { return req.Province != "" },
		sql:     "l.province = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.Province} },
	},
	{
		name:    "city",
		applies: func(req places.SearchRequest) bool { return req.City != "" },
		sql:     "l.city = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.City} },
	},
	{
		name:    "district",
		applies: func(req places.SearchRequest) bool { return req.District != "" },
		sql:     "l.district = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.District} },
	},
	{
		name:    "registration",
		applies: func(req places.SearchRequest) bool { return req.RegistrationStatus != "" },
		sql:     "p.registration_status = ?",
		args:    func(req places.SearchRequest) []any { return []any{req.RegistrationStatus} },
	},
}

func applySearchFilters(b *whereBuilder, req places.SearchRequest) {
	for _, filter := range searchFilters {
		if filter.applies != nil && !filter.applies(req) {
			continue
		}
		if filter.args != nil {
			b.where(filter.sql, filter.args(req)...)
			continue
		}
		b.where(filter.sql)
	}
}

// applyBaselineFilters is the radius-search subset: soft-delete, active
// flag, approval status, and the optional registration-state filter.
func applyBaselineFilters(b *whereBuilder, req places.SearchRequest) {
	b.where("p.deleted_at IS NULL")
	b.where("p.is_active = ?", req.IsActive)
	b.where("p.approval_status = ?", string(req.ApprovalStatus))
	if req.RegistrationStatus != "" {
		b.where("p.registration_status = ?", req.RegistrationStatus)
	}
}
