// Package memorydb persists memory records. The radius search runs on
// PostGIS geography casts so distances are true geodesic meters rather
// than planar approximations.
package memorydb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ourlineintime/lineintime/model"
)

var ErrNotFound = errors.New("memory not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Update carries the set of fields a partial update may change. A nil
// pointer (or nil Tags) means "leave unchanged"; there is no way to
// explicitly unset a field. Keeping the set enumerated here is what
// prevents arbitrary input keys from ever reaching a column reference.
type Update struct {
	Title        *string
	Narrative    *string
	DateType     *model.DateType
	StartDate    *time.Time
	EndDate      *time.Time
	Location     *model.GeoPoint
	LocationName *string
	PrivacyLevel *model.PrivacyLevel
	Tags         []string
}

func (u Update) Empty() bool {
	return u.Title == nil && u.Narrative == nil && u.DateType == nil &&
		u.StartDate == nil && u.EndDate == nil && u.Location == nil &&
		u.LocationName == nil && u.PrivacyLevel == nil && u.Tags == nil
}

const memoryColumns = `id, title, narrative, date_type, start_date, end_date,
ST_X(location) AS lng, ST_Y(location) AS lat,
location_name, privacy_level, tags,
created_by, last_modified_by, created_at, updated_at`

func (s *Store) insertQuery() string {
	return `INSERT INTO memories (
id, title, narrative, date_type, start_date, end_date,
location, location_name, privacy_level, tags,
created_by, last_modified_by
) VALUES (
$1, $2, $3, $4, $5, $6,
ST_SetSRID(ST_MakePoint($7, $8), 4326), $9, $10, $11,
$12, $13
) RETURNING created_at, updated_at`
}

func (s *Store) selectQuery() string {
	return `SELECT ` + memoryColumns + ` FROM memories WHERE id = $1`
}

func (s *Store) listForUserQuery() string {
	return `SELECT ` + memoryColumns + ` FROM memories
WHERE created_by = $1 OR id IN (
SELECT memory_id FROM memory_family_members WHERE family_member_id = $1
)
ORDER BY start_date DESC
LIMIT $2 OFFSET $3`
}

func (s *Store) deleteQuery() string {
	return `DELETE FROM memories WHERE id = $1`
}

func (s *Store) membersQuery() string {
	return `SELECT family_member_id FROM memory_family_members WHERE memory_id = $1`
}

func (s *Store) searchQuery(withViewer bool) string {
	query := `SELECT ` + memoryColumns + ` FROM memories
WHERE ST_DWithin(
location::geography,
ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
$3
)`

	if withViewer {
		query += `
AND (privacy_level = 'public' OR created_by = $4 OR id IN (
SELECT memory_id FROM memory_family_members WHERE family_member_id = $4
))`
	} else {
		query += `
AND privacy_level = 'public'`
	}

	return query + `
ORDER BY start_date DESC`
}

// buildUpdate assembles the SET clause from the enumerated field set.
// Returns ("", nil) when the update is empty.
func (s *Store) buildUpdate(id string, u Update, modifiedBy string) (string, []any, error) {
	if u.Empty() {
		return "", nil, nil
	}

	var sets []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if u.Title != nil {
		sets = append(sets, "title = "+arg(*u.Title))
	}
	if u.Narrative != nil {
		sets = append(sets, "narrative = "+arg(*u.Narrative))
	}
	if u.DateType != nil {
		sets = append(sets, "date_type = "+arg(string(*u.DateType)))
	}
	if u.StartDate != nil {
		sets = append(sets, "start_date = "+arg(*u.StartDate))
	}
	if u.EndDate != nil {
		sets = append(sets, "end_date = "+arg(*u.EndDate))
	}
	if u.Location != nil {
		lng := arg(u.Location.Lng)
		lat := arg(u.Location.Lat)
		sets = append(sets, fmt.Sprintf("location = ST_SetSRID(ST_MakePoint(%s, %s), 4326)", lng, lat))
	}
	if u.LocationName != nil {
		sets = append(sets, "location_name = "+arg(*u.LocationName))
	}
	if u.PrivacyLevel != nil {
		sets = append(sets, "privacy_level = "+arg(string(*u.PrivacyLevel)))
	}
	if u.Tags != nil {
		tags, err := json.Marshal(u.Tags)
		if err != nil {
			return "", nil, fmt.Errorf("encode tags: %w", err)
		}
		sets = append(sets, "tags = "+arg(string(tags)))
	}

	sets = append(sets, "last_modified_by = "+arg(modifiedBy))
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE memories SET %s WHERE id = %s RETURNING `+memoryColumns,
		strings.Join(sets, ", "), arg(id))

	return query, args, nil
}

func (s *Store) Create(ctx context.Context, m *model.Memory) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	err = s.db.QueryRowContext(ctx, s.insertQuery(),
		m.ID, m.Title, m.Narrative, string(m.DateType), m.StartDate, m.EndDate,
		m.Location.Lng, m.Location.Lat, m.LocationName, string(m.PrivacyLevel),
		string(tags), m.CreatedBy, m.LastModifiedBy,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, s.selectQuery(), id)

	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get memory: %w", err)
	}

	return m, nil
}

func (s *Store) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, s.listForUserQuery(), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// UpdateFields applies the supplied partial update, stamping
// last_modified_by and a fresh updated_at. An empty update is a no-op
// that returns the stored row untouched, updated_at included.
func (s *Store) UpdateFields(ctx context.Context, id string, u Update, modifiedBy string) (*model.Memory, error) {
	query, args, err := s.buildUpdate(id, u, modifiedBy)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return s.GetByID(ctx, id)
	}

	row := s.db.QueryRowContext(ctx, query, args...)

	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update memory: %w", err)
	}

	return m, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.deleteQuery(), id)
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}

	return n > 0, nil
}

// SearchByRadius returns memories within radiusKm geodesic kilometers of
// the center, newest start date first. The boundary is inclusive. With a
// viewer, visibility covers public memories, the viewer's own, and those
// shared with the viewer; without one, public only.
func (s *Store) SearchByRadius(ctx context.Context, centerLat, centerLng, radiusKm float64, viewerID string) ([]*model.Memory, error) {
	radiusMeters := radiusKm * 1000

	var rows *sql.Rows
	var err error
	if viewerID != "" {
		rows, err = s.db.QueryContext(ctx, s.searchQuery(true), centerLng, centerLat, radiusMeters, viewerID)
	} else {
		rows, err = s.db.QueryContext(ctx, s.searchQuery(false), centerLng, centerLat, radiusMeters)
	}
	if err != nil {
		return nil, fmt.Errorf("radius search: %w", err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// ReplaceMembers swaps the shared-member set for a memory.
func (s *Store) ReplaceMembers(ctx context.Context, memoryID string, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace members: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_family_members WHERE memory_id = $1`, memoryID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}

	for _, memberID := range memberIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memory_family_members (memory_id, family_member_id) VALUES ($1, $2)`,
			memoryID, memberID)
		if err != nil {
			return fmt.Errorf("add member: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) MembersFor(ctx context.Context, memoryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.membersQuery(), memoryID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var m model.Memory
	var dateType, privacy string
	var endDate sql.NullTime
	var tags []byte

	err := row.Scan(
		&m.ID, &m.Title, &m.Narrative, &dateType, &m.StartDate, &endDate,
		&m.Location.Lng, &m.Location.Lat, &m.LocationName, &privacy, &tags,
		&m.CreatedBy, &m.LastModifiedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.DateType = model.DateType(dateType)
	m.PrivacyLevel = model.PrivacyLevel(privacy)
	m.Tags = []string{}
	m.FamilyMembers = []string{}

	if endDate.Valid {
		t := endDate.Time
		m.EndDate = &t
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &m.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}

	return &m, nil
}

func collectMemories(rows *sql.Rows) ([]*model.Memory, error) {
	memories := []*model.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect memories: %w", err)
	}

	return memories, nil
}
