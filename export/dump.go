package export

import (
	"context"
	"database/sql"
	"time"
)

// The dump queries avoid the raw geometry columns so their output stays
// readable in JSON and CSV.

func (e *Exporter) familyMembersDumpQuery() string {
	return `SELECT id, email, name, role, generation_level, is_active, last_active_at, created_at
FROM family_members ORDER BY created_at ASC`
}

func (e *Exporter) memoriesDumpQuery(forUser bool) string {
	q := `SELECT id, title, narrative, date_type, start_date, end_date,
ST_Y(location) AS lat, ST_X(location) AS lng, location_name, privacy_level,
tags, created_by, last_modified_by, created_at, updated_at
FROM memories`
	if forUser {
		// Owned plus explicitly shared, same scope the read path grants.
		q += ` WHERE created_by = $1
OR id IN (SELECT memory_id FROM memory_family_members WHERE family_member_id = $1)`
	}
	return q + ` ORDER BY start_date DESC`
}

func (e *Exporter) mediaItemsDumpQuery(byUploader bool) string {
	q := `SELECT id, memory_id, filename, mime_type, file_size, storage_key, thumbnail_key,
uploaded_by, captured_at, processing_status, created_at
FROM media_items`
	if byUploader {
		q += ` WHERE uploaded_by = $1`
	}
	return q + ` ORDER BY created_at ASC`
}

func (e *Exporter) memoryMembersDumpQuery() string {
	return `SELECT memory_id, family_member_id FROM memory_family_members ORDER BY memory_id ASC`
}

func (e *Exporter) userDumpQuery() string {
	return `SELECT id, email, name, role, generation_level, created_at
FROM family_members WHERE id = $1`
}

func (e *Exporter) databaseSizeQuery() string {
	return `SELECT pg_database_size(current_database())`
}

// dumpRows runs a query and materializes every row as a column-keyed
// map. Table snapshots are bounded by the family data set, so holding
// them in memory is fine.
func (e *Exporter) dumpRows(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ExportInfo summarizes one export document.
type ExportInfo struct {
	Timestamp       time.Time `json:"timestamp"`
	TotalMemories   int       `json:"total_memories"`
	TotalMediaItems int       `json:"total_media_items"`
}

// UserData is the per-user export document.
type UserData struct {
	User       map[string]any   `json:"user"`
	Memories   []map[string]any `json:"memories"`
	MediaItems []map[string]any `json:"media_items"`
	ExportInfo ExportInfo       `json:"export_info"`
}

// FamilyData is the whole-family export document.
type FamilyData struct {
	FamilyMembers []map[string]any `json:"family_members"`
	Memories      []map[string]any `json:"memories"`
	MediaItems    []map[string]any `json:"media_items"`
	MemoryMembers []map[string]any `json:"memory_family_members"`
	ExportInfo    ExportInfo       `json:"export_info"`
}

// UserData gathers the user's record, the memories they created or were
// shared on, and the media they uploaded.
func (e *Exporter) UserData(ctx context.Context, userID string) (*UserData, error) {
	users, err := e.dumpRows(ctx, e.userDumpQuery(), userID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, sql.ErrNoRows
	}

	memories, err := e.dumpRows(ctx, e.memoriesDumpQuery(true), userID)
	if err != nil {
		return nil, err
	}
	media, err := e.dumpRows(ctx, e.mediaItemsDumpQuery(true), userID)
	if err != nil {
		return nil, err
	}

	return &UserData{
		User:       users[0],
		Memories:   memories,
		MediaItems: media,
		ExportInfo: ExportInfo{
			Timestamp:       e.now(),
			TotalMemories:   len(memories),
			TotalMediaItems: len(media),
		},
	}, nil
}

// FamilyData snapshots every table.
func (e *Exporter) FamilyData(ctx context.Context) (*FamilyData, error) {
	members, err := e.dumpRows(ctx, e.familyMembersDumpQuery())
	if err != nil {
		return nil, err
	}
	memories, err := e.dumpRows(ctx, e.memoriesDumpQuery(false))
	if err != nil {
		return nil, err
	}
	media, err := e.dumpRows(ctx, e.mediaItemsDumpQuery(false))
	if err != nil {
		return nil, err
	}
	joins, err := e.dumpRows(ctx, e.memoryMembersDumpQuery())
	if err != nil {
		return nil, err
	}

	return &FamilyData{
		FamilyMembers: members,
		Memories:      memories,
		MediaItems:    media,
		MemoryMembers: joins,
		ExportInfo: ExportInfo{
			Timestamp:       e.now(),
			TotalMemories:   len(memories),
			TotalMediaItems: len(media),
		},
	}, nil
}

// Sections orders the family tables for CSV rendering.
func (d *FamilyData) Sections() []Section {
	return []Section{
		{Name: "family_members", Rows: d.FamilyMembers},
		{Name: "memories", Rows: d.Memories},
		{Name: "media_items", Rows: d.MediaItems},
		{Name: "memory_family_members", Rows: d.MemoryMembers},
	}
}

// Sections orders the user tables for CSV rendering.
func (d *UserData) Sections() []Section {
	return []Section{
		{Name: "user", Rows: []map[string]any{d.User}},
		{Name: "memories", Rows: d.Memories},
		{Name: "media_items", Rows: d.MediaItems},
	}
}
