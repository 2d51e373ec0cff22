package storage

// sqlite.go: journal de sesiones de trading.
//
//   - `sessions`: una fila por ejecución del motor.
//   - `actions`: cada orden enviada (limit, IOC, market, cancel), incluidos rechazos.
//   - `fills`: cada AccountUpdate recibido, con signo ya aplicado.
//   - `games`: marcador final de cada partido cerrado.
//   - Prune automático al arrancar: sesiones de más de 30 días (y sus filas hijas).

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    instrument TEXT     NOT NULL,
    started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS actions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT     NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    kind       TEXT     NOT NULL,
    instrument TEXT     NOT NULL,
    side       TEXT     NOT NULL,
    quantity   REAL     NOT NULL DEFAULT 0,
    price      REAL     NOT NULL DEFAULT 0,
    order_id   INTEGER  NOT NULL DEFAULT 0,
    rejected   INTEGER  NOT NULL DEFAULT 0,
    at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id        TEXT     NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    instrument        TEXT     NOT NULL,
    side              TEXT     NOT NULL,
    price             REAL     NOT NULL,
    signed_qty        REAL     NOT NULL,
    capital_remaining REAL     NOT NULL,
    at                DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT     NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    home_score INTEGER  NOT NULL,
    away_score INTEGER  NOT NULL,
    ended_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id);
CREATE INDEX IF NOT EXISTS idx_fills_session   ON fills(session_id);
CREATE INDEX IF NOT EXISTS idx_games_session   ON games(session_id);
CREATE INDEX IF NOT EXISTS idx_sessions_at     ON sessions(started_at DESC);
`

const retentionSessions = 30 * 24 * time.Hour

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia sesiones antiguas.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// StartSession registra una sesión nueva. Reabrir un id existente no falla.
func (j *SQLiteJournal) StartSession(ctx context.Context, sessionID string, instrument domain.Instrument, startedAt time.Time) error {
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO sessions (id, instrument, started_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		sessionID, string(instrument), startedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.StartSession: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) RecordAction(ctx context.Context, a ports.Action) error {
	rejected := 0
	if a.Rejected {
		rejected = 1
	}
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO actions (session_id, kind, instrument, side, quantity, price, order_id, rejected, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, string(a.Kind), string(a.Instrument), a.Side.String(),
		a.Quantity, a.Price, int64(a.OrderID), rejected, a.At.UTC(),
	); err != nil {
		return fmt.Errorf("storage.RecordAction: %s: %w", a.Kind, err)
	}
	return nil
}

func (j *SQLiteJournal) RecordFill(ctx context.Context, sessionID string, fill domain.AccountUpdate, at time.Time) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO fills (session_id, instrument, side, price, signed_qty, capital_remaining, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(fill.Instrument), fill.Side.String(), fill.Price,
		fill.SignedQuantity(), fill.CapitalRemaining, at.UTC(),
	); err != nil {
		return fmt.Errorf("storage.RecordFill: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) RecordGame(ctx context.Context, g ports.GameResult) error {
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO games (session_id, home_score, away_score, ended_at) VALUES (?, ?, ?, ?)`,
		g.SessionID, g.HomeScore, g.AwayScore, g.EndedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.RecordGame: %w", err)
	}
	return nil
}

// Summary agrega acciones por tipo, fills y partidos de la sesión.
func (j *SQLiteJournal) Summary(ctx context.Context, sessionID string) (ports.JournalSummary, error) {
	sum := ports.JournalSummary{Actions: make(map[ports.ActionKind]int)}

	rows, err := j.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM actions WHERE session_id = ? GROUP BY kind`, sessionID)
	if err != nil {
		return sum, fmt.Errorf("storage.Summary: actions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return sum, fmt.Errorf("storage.Summary: scan action: %w", err)
		}
		sum.Actions[ports.ActionKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return sum, fmt.Errorf("storage.Summary: actions: %w", err)
	}

	if err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fills WHERE session_id = ?`, sessionID,
	).Scan(&sum.Fills); err != nil {
		return sum, fmt.Errorf("storage.Summary: fills: %w", err)
	}
	if err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE session_id = ?`, sessionID,
	).Scan(&sum.Games); err != nil {
		return sum, fmt.Errorf("storage.Summary: games: %w", err)
	}
	return sum, nil
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina sesiones antiguas; las filas hijas caen por cascade.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSessions)
	j.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, cutoff)
}
