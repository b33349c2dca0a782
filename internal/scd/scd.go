// Package scd implements type-2 slowly changing dimensions as a versioned
// entity: one current row per natural key plus an immutable history of closed
// rows whose [effective_date, expiry_date) intervals never overlap.
//
// Dimension models embed Version and implement Row; Upsert is the only code
// path that writes versioning columns.
package scd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"retailworks/internal/apierror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpenEnded is the expiry date carried by every current row.
var OpenEnded = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Version holds the bookkeeping columns shared by all dimension tables.
type Version struct {
	EffectiveDate time.Time `gorm:"not null"`
	ExpiryDate    time.Time `gorm:"not null"`
	IsCurrent     bool      `gorm:"not null;default:false"`
	VersionNumber int       `gorm:"not null;default:1"`
	RowHash       string    `gorm:"size:64;not null"`
}

// Row is implemented by pointer receivers of dimension models.
type Row interface {
	TableName() string
	NaturalKeyColumn() string
	NaturalKey() any
	SurrogateKey() int64
	Versioning() *Version
	// Fingerprint hashes the tracked attributes; equal fingerprints mean no new version.
	Fingerprint() string
}

// Action describes what Upsert did to the dimension.
type Action string

const (
	Inserted  Action = "inserted"
	Versioned Action = "versioned"
	Unchanged Action = "unchanged"
)

type Result struct {
	Key     int64
	Version int
	Action  Action
}

// Fingerprint returns a stable sha256 over the given attribute values.
func Fingerprint(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Upsert applies an SCD2 change for incoming inside tx. incoming must be an
// unsaved row; its versioning fields are overwritten. Any race with another
// writer on the same natural key surfaces as a ConcurrencyConflict.
func Upsert[T any, P interface {
	*T
	Row
}](ctx context.Context, tx *gorm.DB, incoming P, at time.Time) (Result, error) {
	if incoming.SurrogateKey() != 0 {
		return Result{}, fmt.Errorf("scd: %s row already has surrogate key %d", incoming.TableName(), incoming.SurrogateKey())
	}
	tx = tx.WithContext(ctx)
	at = at.UTC()
	table := incoming.TableName()
	key := incoming.NaturalKey()

	if err := lockNaturalKey(tx, table, key); err != nil {
		return Result{}, err
	}

	var current T
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(incoming.NaturalKeyColumn()+" = ? AND is_current = ?", key, true).
		Limit(1).
		Find(&current)
	if res.Error != nil {
		return Result{}, fmt.Errorf("scd: load current %s: %w", table, res.Error)
	}

	fp := incoming.Fingerprint()
	next := 1
	if res.RowsAffected > 0 {
		cur := P(&current)
		cv := cur.Versioning()
		if cv.RowHash == fp {
			return Result{Key: cur.SurrogateKey(), Version: cv.VersionNumber, Action: Unchanged}, nil
		}
		if !at.After(cv.EffectiveDate) {
			at = cv.EffectiveDate.Add(time.Microsecond)
		}
		closed := tx.Model(cur).
			Where("is_current = ?", true).
			Updates(map[string]any{"is_current": false, "expiry_date": at})
		if closed.Error != nil {
			return Result{}, fmt.Errorf("scd: close %s version: %w", table, closed.Error)
		}
		if closed.RowsAffected == 0 {
			return Result{}, apierror.Conflict(table, nil)
		}
		next = cv.VersionNumber + 1
	}

	v := incoming.Versioning()
	v.EffectiveDate = at
	v.ExpiryDate = OpenEnded
	v.IsCurrent = true
	v.VersionNumber = next
	v.RowHash = fp
	if err := tx.Create(incoming).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Result{}, apierror.Conflict(table, err)
		}
		return Result{}, fmt.Errorf("scd: insert %s version: %w", table, err)
	}

	action := Inserted
	if next > 1 {
		action = Versioned
	}
	return Result{Key: incoming.SurrogateKey(), Version: next, Action: action}, nil
}

// Timeline caches the version history of natural keys for repeated
// point-in-time lookups within one load.
type Timeline[T any, P interface {
	*T
	Row
}] struct {
	db    *gorm.DB
	cache map[string][]T
}

func NewTimeline[T any, P interface {
	*T
	Row
}](db *gorm.DB) *Timeline[T, P] {
	return &Timeline[T, P]{db: db, cache: make(map[string][]T)}
}

// At returns the version valid at the given instant. Events older than the
// first version resolve to that first version.
func (tl *Timeline[T, P]) At(ctx context.Context, naturalKey any, at time.Time) (P, error) {
	k := fmt.Sprint(naturalKey)
	rows, ok := tl.cache[k]
	if !ok {
		var err error
		rows, err = History[T, P](ctx, tl.db, naturalKey)
		if err != nil {
			return nil, fmt.Errorf("scd: load history: %w", err)
		}
		tl.cache[k] = rows
	}
	if len(rows) == 0 {
		var zero T
		p := P(&zero)
		return nil, apierror.NotFound(p.TableName(), p.NaturalKeyColumn(), naturalKey)
	}
	at = at.UTC()
	for i := range rows {
		v := P(&rows[i]).Versioning()
		if !v.EffectiveDate.After(at) && v.ExpiryDate.After(at) {
			return P(&rows[i]), nil
		}
	}
	return P(&rows[0]), nil
}

// KeyAt resolves the surrogate key of the version valid at the given instant.
func (tl *Timeline[T, P]) KeyAt(ctx context.Context, naturalKey any, at time.Time) (int64, error) {
	row, err := tl.At(ctx, naturalKey, at)
	if err != nil {
		return 0, err
	}
	return row.SurrogateKey(), nil
}

// History returns every version of a natural key, oldest first.
func History[T any, P interface {
	*T
	Row
}](ctx context.Context, db *gorm.DB, naturalKey any) ([]T, error) {
	var zero T
	var rows []T
	err := db.WithContext(ctx).
		Where(P(&zero).NaturalKeyColumn()+" = ?", naturalKey).
		Order("version_number ASC").
		Find(&rows).Error
	return rows, err
}

// lockNaturalKey serializes writers of one natural key for the rest of the
// transaction. Only PostgreSQL supports it; other dialects rely on the partial
// unique index over current rows.
func lockNaturalKey(tx *gorm.DB, table string, key any) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	lockKey := fmt.Sprintf("%s:%v", table, key)
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", lockKey).Error; err != nil {
		return fmt.Errorf("scd: lock %s: %w", lockKey, err)
	}
	return nil
}
