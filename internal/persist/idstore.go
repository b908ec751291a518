package persist

import (
	"context"

	"github.com/ashvale/server/internal/ident"
)

// EntityIDStore feeds the id allocator the set of world ids reserved by
// database rows. Characters and persisted items share one id space.
type EntityIDStore struct {
	db *DB
}

func NewEntityIDStore(db *DB) *EntityIDStore {
	return &EntityIDStore{db: db}
}

// UsedIDs returns every persisted world id in ascending order, which the
// allocator's gap scan depends on.
func (s *EntityIDStore) UsedIDs(ctx context.Context) ([]ident.EntityID, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id FROM characters
		 UNION
		 SELECT id FROM character_items
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []ident.EntityID
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, ident.EntityID(id))
	}
	return ids, rows.Err()
}
