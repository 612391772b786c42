package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/pkg/pgtools"
	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/repository/noterepo"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotesPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (NotesPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, cfg)
	if err != nil {
		return NotesPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg, "./migrations"); err != nil {
		return NotesPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return NotesPostgresRepo{
		db: db,
	}, nil
}

func (nr NotesPostgresRepo) CreateNote(ctx context.Context, n models.Note) (id int64, err error) { //nolint:nonamedreturns
	tx, err := nr.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("notes").
		Columns("user_id", "title", "body", "completed").
		Values(n.UserID, n.Title, n.Text, n.Completed).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (nr NotesPostgresRepo) GetNotes(ctx context.Context) (notes []models.Note, err error) { //nolint:nonamedreturns
	tx, err := nr.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get notes")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select(
		"n.id", "n.user_id", "u.username", "n.ticket",
		"n.title", "n.body", "n.completed", "n.created_at", "n.updated_at").
		From("notes n").
		Join("users u ON u.id = n.user_id").
		OrderBy("n.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	notes = make([]models.Note, 0, 10) //nolint:gomnd

	for rows.Next() {
		var n models.Note

		if err := rows.Scan(&n.ID, &n.UserID, &n.Username, &n.Ticket,
			&n.Title, &n.Text, &n.Completed, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		notes = append(notes, n)
	}

	return notes, nil
}

func (nr NotesPostgresRepo) UpdateNote(ctx context.Context, n models.Note) (err error) { //nolint:nonamedreturns
	tx, err := nr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("notes").
		Set("user_id", n.UserID).
		Set("title", n.Title).
		Set("body", n.Text).
		Set("completed", n.Completed).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": n.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return noterepo.ErrNotFound
	}

	return nil
}

func (nr NotesPostgresRepo) DeleteNote(ctx context.Context, id int64) (n models.Note, err error) { //nolint:nonamedreturns
	tx, err := nr.db.Begin(ctx)
	if err != nil {
		return models.Note{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("notes").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, title").ToSql()
	if err != nil {
		return models.Note{}, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&n.ID, &n.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Note{}, noterepo.ErrNotFound
		}

		return models.Note{}, fmt.Errorf("scan error: %w", err)
	}

	return n, nil
}

// CountByUser reports a true count of notes assigned to the user,
// never a truthy guess from a single matched row.
func (nr NotesPostgresRepo) CountByUser(ctx context.Context, userID int64) (count int64, err error) { //nolint:nonamedreturns
	tx, err := nr.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "count")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("COUNT(*)").
		From("notes").
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return count, nil
}

func (nr NotesPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		nr.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
