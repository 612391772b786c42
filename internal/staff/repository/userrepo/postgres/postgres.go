package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/pkg/pgtools"
	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/repository/userrepo"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type UsersPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (UsersPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, cfg)
	if err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg, "./migrations"); err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return UsersPostgresRepo{
		db: db,
	}, nil
}

// CreateUser relies on the unique index on username as the only
// uniqueness check; a violation surfaces as ErrAleradyExists.
func (ur UsersPostgresRepo) CreateUser(ctx context.Context, u models.User) (id int64, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("users").
		Columns("username", "password_hash", "roles", "active").
		Values(u.Username, u.PasswordHash, u.Roles, u.Active).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, userrepo.ErrAleradyExists
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (ur UsersPostgresRepo) GetUsers(ctx context.Context) (users []models.User, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get users")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "username", "roles", "active").
		From("users").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	users = make([]models.User, 0, 10) //nolint:gomnd

	for rows.Next() {
		var u models.User

		if err := rows.Scan(&u.ID, &u.Username, &u.Roles, &u.Active); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		users = append(users, u)
	}

	return users, nil
}

func (ur UsersPostgresRepo) GetUser(ctx context.Context, username string) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"username": username})
}

func (ur UsersPostgresRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"id": id})
}

func (ur UsersPostgresRepo) getUser(ctx context.Context, where squirrel.Eq) (u models.User, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get user")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "username", "password_hash", "roles", "active").
		From("users").
		Where(where).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Roles, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, userrepo.ErrNotFound
		}

		return u, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}

func (ur UsersPostgresRepo) UpdateUser(ctx context.Context, u models.User) (err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("users").
		Set("username", u.Username).
		Set("password_hash", u.PasswordHash).
		Set("roles", u.Roles).
		Set("active", u.Active).
		Where(squirrel.Eq{"id": u.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return userrepo.ErrAleradyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}

	return nil
}

func (ur UsersPostgresRepo) DeleteUser(ctx context.Context, id int64) (u models.User, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("users").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, username").ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, userrepo.ErrNotFound
		}

		return models.User{}, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}

func (ur UsersPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		ur.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func isUniqueViolation(err error) bool {
	target := new(pgconn.PgError)

	return errors.As(err, &target) && target.Code == uniqueViolationCode
}
