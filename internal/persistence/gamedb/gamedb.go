// Package gamedb is the persistence gateway: accounts, per-account stats,
// the item catalog and inventory rows, all in a single SQLite file. Every
// value written on the save path is clamped server-side; client payloads are
// never trusted.
package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/player"
	"ironvale.gg/internal/sim/tuning"
)

var (
	ErrNotFound      = errors.New("gamedb: not found")
	ErrUsernameTaken = errors.New("gamedb: username taken")
)

type DB struct {
	db     *sql.DB
	clamps tuning.Clamps
	cats   *catalogs.Catalogs
	logger *log.Logger
}

func Open(path string, t tuning.Tuning, cats *catalogs.Catalogs, logger *log.Logger) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, clamps: t.Clamps, cats: cats, logger: logger}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			combat_level INTEGER NOT NULL DEFAULT 1,
			combat_xp INTEGER NOT NULL DEFAULT 0,
			mining_level INTEGER NOT NULL DEFAULT 1,
			mining_xp INTEGER NOT NULL DEFAULT 0,
			smithing_level INTEGER NOT NULL DEFAULT 1,
			smithing_xp INTEGER NOT NULL DEFAULT 0,
			coin_mult_level INTEGER NOT NULL DEFAULT 0,
			dps_mult_level INTEGER NOT NULL DEFAULT 0,
			click_mult_level INTEGER NOT NULL DEFAULT 0,
			ore_mult_level INTEGER NOT NULL DEFAULT 0,
			ore_dps_mult_level INTEGER NOT NULL DEFAULT 0,
			ore_click_mult_level INTEGER NOT NULL DEFAULT 0,
			sword_tier INTEGER NOT NULL DEFAULT 1,
			pickaxe_tier INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			item_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			type TEXT,
			description TEXT,
			tier INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS user_inventory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			item_id INTEGER NOT NULL REFERENCES items(item_id),
			quantity INTEGER NOT NULL DEFAULT 0,
			equipped INTEGER NOT NULL DEFAULT 0,
			UNIQUE (user_id, item_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_user ON user_inventory(user_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error { return d.db.Close() }

// statKind selects which clamp applies to a stats column.
type statKind int

const (
	kindSkillLevel statKind = iota + 1
	kindSkillXP
	kindUpgradeLevel
	kindToolTier
)

// statColumns is the full snapshot-key to stats-column mapping. Save and
// load both iterate this table so the two paths cannot drift.
var statColumns = []struct {
	key  string
	col  string
	kind statKind
}{
	{"combatLevel", "combat_level", kindSkillLevel},
	{"combatXp", "combat_xp", kindSkillXP},
	{"miningLevel", "mining_level", kindSkillLevel},
	{"miningXp", "mining_xp", kindSkillXP},
	{"smithingLevel", "smithing_level", kindSkillLevel},
	{"smithingXp", "smithing_xp", kindSkillXP},
	{"coinMultiplierLevel", "coin_mult_level", kindUpgradeLevel},
	{"dpsMultiplierLevel", "dps_mult_level", kindUpgradeLevel},
	{"clickMultiplierLevel", "click_mult_level", kindUpgradeLevel},
	{"oreMultiplierLevel", "ore_mult_level", kindUpgradeLevel},
	{"oreDpsMultiplierLevel", "ore_dps_mult_level", kindUpgradeLevel},
	{"oreClickMultiplierLevel", "ore_click_mult_level", kindUpgradeLevel},
	{"swordTier", "sword_tier", kindToolTier},
	{"pickaxeTier", "pickaxe_tier", kindToolTier},
}

func (d *DB) clampStat(kind statKind, v int) int {
	c := d.clamps
	switch kind {
	case kindSkillLevel:
		return clamp(v, c.SkillLevelMin, c.SkillLevelMax)
	case kindSkillXP:
		return clamp(v, 0, c.SkillXPMax)
	case kindUpgradeLevel:
		return clamp(v, 0, c.UpgradeLevelMax)
	case kindToolTier:
		return clamp(v, c.ToolTierMin, c.ToolTierMax)
	}
	return v
}

// EnsureBaseItems makes sure every catalog item exists in the items table
// exactly once, keyed by human-readable name. Idempotent; safe against a
// concurrent run because the insert is conditional and items are immutable.
func (d *DB) EnsureBaseItems(ctx context.Context) error {
	for _, it := range d.cats.Items.Defs {
		var id int64
		err := d.db.QueryRowContext(ctx, `SELECT item_id FROM items WHERE name = ?`, it.Name).Scan(&id)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("gamedb: items lookup %q: %w", it.Name, err)
		}
		_, err = d.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO items (name, type, description, tier) VALUES (?, ?, ?, ?)`,
			it.Name, it.Type, it.Description, it.Tier)
		if err != nil {
			return fmt.Errorf("gamedb: insert item %q: %w", it.Name, err)
		}
	}
	return nil
}

// CreateUser inserts the account with its default stats row and one
// zero-quantity inventory row per catalog item.
func (d *DB) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("gamedb: insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_stats (user_id) VALUES (?)`, id); err != nil {
		return 0, fmt.Errorf("gamedb: insert stats row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_inventory (user_id, item_id, quantity)
		SELECT ?, item_id, 0 FROM items`, id); err != nil {
		return 0, fmt.Errorf("gamedb: seed inventory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Credentials returns the account id and stored password hash for a
// username, or ErrNotFound.
func (d *DB) Credentials(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string
	err := d.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("gamedb: credentials %q: %w", username, err)
	}
	return id, hash, nil
}

// LoadProgress joins the stats row with the inventory rows and translates
// item names to camelCase keys. A missing stats row is a data-integrity
// error, reported as ErrNotFound.
func (d *DB) LoadProgress(ctx context.Context, userID int64) (player.Snapshot, error) {
	snap := player.Snapshot{
		Stats:     make(map[string]int, len(statColumns)),
		Inventory: make(map[string]int),
	}

	cols := make([]string, len(statColumns))
	dest := make([]any, len(statColumns))
	vals := make([]int, len(statColumns))
	for i, sc := range statColumns {
		cols[i] = sc.col
		dest[i] = &vals[i]
	}
	q := `SELECT ` + strings.Join(cols, ", ") + ` FROM user_stats WHERE user_id = ?`
	err := d.db.QueryRowContext(ctx, q, userID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return player.Snapshot{}, fmt.Errorf("gamedb: stats row for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return player.Snapshot{}, fmt.Errorf("gamedb: load stats: %w", err)
	}
	for i, sc := range statColumns {
		snap.Stats[sc.key] = vals[i]
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT i.name, inv.quantity
		FROM user_inventory inv
		JOIN items i ON i.item_id = inv.item_id
		WHERE inv.user_id = ?`, userID)
	if err != nil {
		return player.Snapshot{}, fmt.Errorf("gamedb: load inventory: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var qty int
		if err := rows.Scan(&name, &qty); err != nil {
			return player.Snapshot{}, err
		}
		snap.Inventory[catalogs.KeyForName(name)] = qty
	}
	if err := rows.Err(); err != nil {
		return player.Snapshot{}, err
	}
	return snap, nil
}

// SaveProgress overwrites the account's stats row and upserts every
// inventory key in the payload. All values are clamped first; keys with no
// catalog mapping are skipped with a warning, not an error.
func (d *DB) SaveProgress(ctx context.Context, userID int64, snap player.Snapshot) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sets []string
	var args []any
	for _, sc := range statColumns {
		v, ok := snap.Stats[sc.key]
		if !ok {
			continue
		}
		sets = append(sets, sc.col+" = ?")
		args = append(args, d.clampStat(sc.kind, v))
	}
	if len(sets) > 0 {
		args = append(args, userID)
		res, err := tx.ExecContext(ctx,
			`UPDATE user_stats SET `+strings.Join(sets, ", ")+` WHERE user_id = ?`, args...)
		if err != nil {
			return fmt.Errorf("gamedb: update stats: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("gamedb: stats row for user %d: %w", userID, ErrNotFound)
		}
	}

	for key, qty := range snap.Inventory {
		if qty < 0 {
			qty = 0
		}
		name := catalogs.NameForKey(key)
		res, err := tx.ExecContext(ctx, `
			UPDATE user_inventory SET quantity = ?
			WHERE user_id = ? AND item_id = (SELECT item_id FROM items WHERE name = ?)`,
			qty, userID, name)
		if err != nil {
			return fmt.Errorf("gamedb: upsert %q: %w", key, err)
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			continue
		}
		// No row yet: either the account predates this item or the key has
		// no catalog mapping at all.
		res, err = tx.ExecContext(ctx, `
			INSERT INTO user_inventory (user_id, item_id, quantity)
			SELECT ?, item_id, ? FROM items WHERE name = ?`, userID, qty, name)
		if err != nil {
			return fmt.Errorf("gamedb: insert inventory %q: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 && d.logger != nil {
			d.logger.Printf("saveProgress: skipping unmapped inventory key %q (user %d)", key, userID)
		}
	}
	return tx.Commit()
}

// EnsureInventoryRows backfills a zero-quantity row per catalog item for an
// existing account, for schemas that grew new items after signup.
func (d *DB) EnsureInventoryRows(ctx context.Context, userID int64) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_inventory (user_id, item_id, quantity)
		SELECT ?, item_id, 0 FROM items`, userID)
	if err != nil {
		return fmt.Errorf("gamedb: inventory fixup user %d: %w", userID, err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
