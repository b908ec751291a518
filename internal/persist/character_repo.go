package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is the persisted form of a player character. The id column
// doubles as the character's world id, which is why new rows take an
// explicit id from the allocator instead of a sequence.
type CharacterRow struct {
	ID          int32
	AccountName string
	Name        string
	HP          int32
	MaxHP       int32
	MP          int32
	MaxMP       int32
	Attack      int32
	Defense     int32
	X           float64
	Y           float64
	MapID       int16
	Heading     int16
	Gold        int32
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, account_name, name, hp, max_hp, mp, max_mp,
	attack, defense, x, y, map_id, heading, gold`

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := row.Scan(
		&c.ID, &c.AccountName, &c.Name, &c.HP, &c.MaxHP, &c.MP, &c.MaxMP,
		&c.Attack, &c.Defense, &c.X, &c.Y, &c.MapID, &c.Heading, &c.Gold,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadByName returns the character or (nil, nil) when the name is unknown.
func (r *CharacterRepo) LoadByName(ctx context.Context, name string) (*CharacterRow, error) {
	c, err := scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// LoadByAccount lists every character on an account, oldest first.
func (r *CharacterRepo) LoadByAccount(ctx context.Context, accountName string) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters
		 WHERE account_name = $1 ORDER BY id`, accountName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// Create inserts a new character under its pre-allocated world id.
func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO characters (
			id, account_name, name, hp, max_hp, mp, max_mp,
			attack, defense, x, y, map_id, heading, gold
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.AccountName, c.Name, c.HP, c.MaxHP, c.MP, c.MaxMP,
		c.Attack, c.Defense, c.X, c.Y, c.MapID, c.Heading, c.Gold,
	)
	if err != nil {
		return fmt.Errorf("insert character %q: %w", c.Name, err)
	}
	return nil
}

func (r *CharacterRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1)`, name,
	).Scan(&exists)
	return exists, err
}

func (r *CharacterRepo) CountByAccount(ctx context.Context, accountName string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM characters WHERE account_name = $1`, accountName,
	).Scan(&count)
	return count, err
}

// SaveBatch writes every dirty character's mutable state in one
// transaction. Partial writes never happen; on error the caller retries
// the whole batch next flush.
func (r *CharacterRepo) SaveBatch(ctx context.Context, chars []CharacterRow) error {
	if len(chars) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chars {
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET
				hp = $2, max_hp = $3, mp = $4, max_mp = $5,
				attack = $6, defense = $7,
				x = $8, y = $9, map_id = $10, heading = $11, gold = $12
			 WHERE id = $1`,
			c.ID, c.HP, c.MaxHP, c.MP, c.MaxMP,
			c.Attack, c.Defense, c.X, c.Y, c.MapID, c.Heading, c.Gold,
		); err != nil {
			return fmt.Errorf("save character %d: %w", c.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *CharacterRepo) Delete(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM characters WHERE name = $1`, name)
	return err
}
