package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

const queryUpsertGame = `
INSERT INTO finished_games
    (id, white_id, black_id, status, winner, result, start_fen,
     final_fen, final_moved, pgn, created_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    status      = EXCLUDED.status,
    winner      = EXCLUDED.winner,
    result      = EXCLUDED.result,
    final_fen   = EXCLUDED.final_fen,
    final_moved = EXCLUDED.final_moved,
    pgn         = EXCLUDED.pgn,
    finished_at = EXCLUDED.finished_at`

const queryDeleteMoves = `DELETE FROM finished_moves WHERE game_id = $1`

const queryInsertMove = `
INSERT INTO finished_moves (game_id, ply, color, uci, san, fen_after, played_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const queryGetGame = `
SELECT id, white_id, black_id, status, winner, result, start_fen,
       final_fen, final_moved, pgn, created_at, finished_at
FROM finished_games
WHERE id = $1`

const queryMoves = `
SELECT ply, color, uci, san, fen_after, played_at
FROM finished_moves
WHERE game_id = $1
ORDER BY ply ASC`

// Archive is a PostgreSQL-backed ports.Archive.
type Archive struct {
	pool *pgxpool.Pool
}

// New creates an Archive backed by the given connection pool.
func New(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// Save writes rec and its moves in one transaction. Saving the same id
// again replaces the outcome and the move list.
func (a *Archive) Save(ctx context.Context, rec game.Record) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, queryUpsertGame,
		rec.ID, rec.White, rec.Black, rec.Status, rec.Winner, rec.Result, rec.StartFEN,
		rec.Final.FEN, rec.Final.Moved, rec.PGN, rec.CreatedAt, rec.FinishedAt,
	); err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	if _, err := tx.Exec(ctx, queryDeleteMoves, rec.ID); err != nil {
		return fmt.Errorf("delete moves: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range rec.Moves {
		batch.Queue(queryInsertMove, rec.ID, m.Ply, m.Color, m.UCI, m.SAN, m.FENAfter, m.PlayedAt)
	}
	br := tx.SendBatch(ctx, batch)
	for range rec.Moves {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert move: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *Archive) Load(ctx context.Context, id uuid.UUID) (game.Record, error) {
	rec, err := scanRecord(a.pool.QueryRow(ctx, queryGetGame, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Record{}, ports.ErrArchiveNotFound
	}
	if err != nil {
		return game.Record{}, err
	}
	rec.Moves, err = fetchMoves(ctx, a.pool, id)
	if err != nil {
		return game.Record{}, err
	}
	return rec, nil
}

// fetchMoves queries archived moves using any pgx querier (pool or tx).
func fetchMoves(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, gameID uuid.UUID) ([]game.MoveRecord, error) {
	rows, err := q.Query(ctx, queryMoves, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.MoveRecord{}
	for rows.Next() {
		var m game.MoveRecord
		if err := rows.Scan(&m.Ply, &m.Color, &m.UCI, &m.SAN, &m.FENAfter, &m.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// scanRecord reads a finished_games row from either a pgx.Row or pgx.Rows.
func scanRecord(s interface {
	Scan(dest ...any) error
}) (game.Record, error) {
	var rec game.Record
	err := s.Scan(
		&rec.ID, &rec.White, &rec.Black, &rec.Status, &rec.Winner, &rec.Result, &rec.StartFEN,
		&rec.Final.FEN, &rec.Final.Moved, &rec.PGN, &rec.CreatedAt, &rec.FinishedAt,
	)
	return rec, err
}
