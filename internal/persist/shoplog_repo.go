package persist

import (
	"context"
	"fmt"
)

// ShopTx is one shop trade written ahead of the gold/item mutation. If the
// write fails the trade is cancelled rather than applied unlogged.
type ShopTx struct {
	CharID     int32
	NPCID      int32
	TemplateID int32
	Count      int32
	GoldDelta  int64 // negative for purchases, positive for sales
}

type ShopLogRepo struct {
	db *DB
}

func NewShopLogRepo(db *DB) *ShopLogRepo {
	return &ShopLogRepo{db: db}
}

// Write atomically records a batch of shop transactions.
func (r *ShopLogRepo) Write(ctx context.Context, entries []ShopTx) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("shop log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO shop_log (char_id, npc_id, template_id, count, gold_delta)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.CharID, e.NPCID, e.TemplateID, e.Count, e.GoldDelta,
		); err != nil {
			return fmt.Errorf("shop log insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
