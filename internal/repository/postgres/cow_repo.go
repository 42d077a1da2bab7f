package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/model"
)

// CowRepo implements CowRepository using PostgreSQL.
type CowRepo struct{ db *DB }

// NewCowRepo constructs a cow registry repository.
func NewCowRepo(db *DB) *CowRepo { return &CowRepo{db: db} }

// Upsert inserts the cow or updates its descriptive fields on tag conflict.
func (r *CowRepo) Upsert(ctx context.Context, c *model.Cow) error {
	const q = `
INSERT INTO cows (owner_id, tag, name, breed, parity, dob, latest_calving, group_name)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (owner_id, tag) DO UPDATE
SET name=EXCLUDED.name, breed=EXCLUDED.breed, parity=EXCLUDED.parity,
    dob=EXCLUDED.dob, latest_calving=EXCLUDED.latest_calving, group_name=EXCLUDED.group_name`
	_, err := r.db.Pool.Exec(ctx, q,
		c.OwnerID, c.Tag, c.Name, c.Breed, c.Parity, c.DOB, c.LatestCalving, c.GroupName,
	)
	return err
}

// List returns the owner's cows ordered by tag.
func (r *CowRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.Cow, error) {
	const q = `
SELECT id, owner_id, tag, name, breed, parity, dob, latest_calving, group_name, created_at
FROM cows
WHERE owner_id=$1
ORDER BY tag ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Cow
	for rows.Next() {
		var (
			c       model.Cow
			owner   *uuid.UUID
			dob     *time.Time
			calving *time.Time
		)
		if err = rows.Scan(
			&c.ID, &owner, &c.Tag, &c.Name, &c.Breed, &c.Parity,
			&dob, &calving, &c.GroupName, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		if owner != nil {
			c.OwnerID = *owner
		}
		c.DOB = formatDate(dob)
		c.LatestCalving = formatDate(calving)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClaimLegacy assigns ownerless rows to the given owner.
func (r *CowRepo) ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	const q = `UPDATE cows SET owner_id=$1 WHERE owner_id IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}
