package boxindex

import (
	"encoding/json"
	"strings"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
)

// Beads evaluates the conditions against the indexed rows and returns the
// matches ordered by ascending freeze time. Time predicates compare the
// freeze_time_unix column, never the string form.
func (ix *Index) Beads(conditions []search.Condition, boxName string) ([]meta.Bead, error) {
	where, args := compileConditions(conditions)

	db, err := ix.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT name, content_id, kind, freeze_time_str, inputs_blob FROM beads`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY freeze_time_unix, content_id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, beaderrors.NewBoxIndexError("query", err)
	}
	defer rows.Close()

	var beads []meta.Bead
	for rows.Next() {
		var b meta.Bead
		var inputsBlob string
		if err := rows.Scan(&b.Name, &b.ContentID, &b.Kind, &b.FreezeTimeStr, &inputsBlob); err != nil {
			return nil, beaderrors.NewBoxIndexError("query", err)
		}
		if b.FreezeTime, err = meta.ParseTimestamp(b.FreezeTimeStr); err != nil {
			return nil, beaderrors.NewBoxIndexError("query", err)
		}
		if err := json.Unmarshal([]byte(inputsBlob), &b.Inputs); err != nil {
			return nil, beaderrors.NewBoxIndexError("query", err)
		}
		b.BoxName = boxName
		beads = append(beads, b)
	}
	if err := rows.Err(); err != nil {
		return nil, beaderrors.NewBoxIndexError("query", err)
	}
	return beads, nil
}

// compileConditions maps each predicate to a comparison on a column.
func compileConditions(conditions []search.Condition) (string, []any) {
	var parts []string
	var args []any
	for _, c := range conditions {
		switch c.Kind {
		case search.ByBeadName:
			parts = append(parts, "name = ?")
			args = append(args, c.Value)
		case search.ByKind:
			parts = append(parts, "kind = ?")
			args = append(args, c.Value)
		case search.ByContentID:
			parts = append(parts, "content_id = ?")
			args = append(args, c.Value)
		case search.AtTime:
			parts = append(parts, "freeze_time_unix = ?")
			args = append(args, c.Micros)
		case search.NewerThan:
			parts = append(parts, "freeze_time_unix > ?")
			args = append(args, c.Micros)
		case search.OlderThan:
			parts = append(parts, "freeze_time_unix < ?")
			args = append(args, c.Micros)
		case search.AtOrNewer:
			parts = append(parts, "freeze_time_unix >= ?")
			args = append(args, c.Micros)
		case search.AtOrOlder:
			parts = append(parts, "freeze_time_unix <= ?")
			args = append(args, c.Micros)
		}
	}
	return strings.Join(parts, " AND "), args
}
