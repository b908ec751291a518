package persist

import (
	"context"
	"fmt"
)

// ItemRow is one persisted inventory stack. The id column is the item's
// world id.
type ItemRow struct {
	ID         int32
	CharID     int32
	TemplateID int32
	Name       string
	Count      int32
	Value      int32
}

type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// LoadByCharID returns all items belonging to a character.
func (r *InventoryRepo) LoadByCharID(ctx context.Context, charID int32) ([]ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, char_id, template_id, name, count, value
		 FROM character_items WHERE char_id = $1 ORDER BY id`, charID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ID, &it.CharID, &it.TemplateID, &it.Name, &it.Count, &it.Value); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// SaveInventory replaces a character's items in one transaction
// (delete + bulk insert). Simpler than diffing and the stacks are small.
func (r *InventoryRepo) SaveInventory(ctx context.Context, charID int32, items []ItemRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM character_items WHERE char_id = $1`, charID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_items (id, char_id, template_id, name, count, value)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, charID, it.TemplateID, it.Name, it.Count, it.Value,
		); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ID, err)
		}
	}
	return tx.Commit(ctx)
}
