package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/knotless/knot-backend/internal/domain"
)

const userColumns = `
	id, fullname, username, email, password, gender, dob,
	city, country, lat, lon,
	qualification_type, institute, profession_type, organization,
	hobbies, interests, description, register_date,
	has_pending_match, in_conversation
`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			fullname, username, email, password, gender, dob,
			city, country, lat, lon,
			qualification_type, institute, profession_type, organization,
			hobbies, interests, description,
			has_pending_match, in_conversation
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, false, false)
		RETURNING id, register_date
	`
	return r.db.QueryRowContext(
		ctx, query,
		user.Fullname, user.Username, user.Email, user.Password, user.Gender, user.DOB,
		user.Location.City, user.Location.Country, user.Location.Lat, user.Location.Lon,
		user.Qualification.Type, user.Qualification.Institute,
		user.Profession.Type, user.Profession.Organization,
		pq.Array(user.Hobbies), pq.Array(user.Interests), user.Description,
	).Scan(&user.ID, &user.RegisterDate)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if err := r.loadRejected(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) loadRejected(ctx context.Context, user *domain.User) error {
	query := `SELECT rejected_user_id FROM rejections WHERE user_id = $1 ORDER BY rejected_user_id`
	return r.db.SelectContext(ctx, &user.Rejected, query, user.ID)
}

// Update writes the user-editable fields. Match flags and credentials are
// managed by their own methods.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET city = $1, country = $2, lat = $3, lon = $4,
		    qualification_type = $5, institute = $6,
		    profession_type = $7, organization = $8,
		    hobbies = $9, interests = $10, description = $11
		WHERE id = $12
	`
	result, err := r.db.ExecContext(
		ctx, query,
		user.Location.City, user.Location.Country, user.Location.Lat, user.Location.Lon,
		user.Qualification.Type, user.Qualification.Institute,
		user.Profession.Type, user.Profession.Organization,
		pq.Array(user.Hobbies), pq.Array(user.Interests), user.Description,
		user.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

// FindCandidates runs the coarse eligibility filter in SQL: opposite
// gender, same country, neither flag set, and no rejection in either
// direction. Age gap and qualification tier are filtered in the finder.
func (r *UserRepository) FindCandidates(ctx context.Context, requester *domain.User) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.id <> $1
		  AND u.gender = $2
		  AND u.country = $3
		  AND u.has_pending_match = false
		  AND u.in_conversation = false
		  AND NOT EXISTS (
			SELECT 1 FROM rejections r
			WHERE r.user_id = u.id AND r.rejected_user_id = $1
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM rejections r
			WHERE r.user_id = $1 AND r.rejected_user_id = u.id
		  )
	`
	rows, err := r.db.QueryContext(ctx, query, requester.ID, requester.OppositeGender(), requester.Location.Country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) SetPendingMatch(ctx context.Context, userID int, pending bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET has_pending_match = $1 WHERE id = $2`, pending, userID)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

func (r *UserRepository) SetMatchFlags(ctx context.Context, userID int, hasPending, inConversation bool) error {
	query := `UPDATE users SET has_pending_match = $1, in_conversation = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, hasPending, inConversation, userID)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

// AddRejection records one direction of a rejection. Re-recording an
// existing rejection is a no-op, which keeps reject and expiry cleanup
// idempotent when they race.
func (r *UserRepository) AddRejection(ctx context.Context, userID, rejectedID int) error {
	query := `
		INSERT INTO rejections (user_id, rejected_user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID, rejectedID)
	return err
}

func (r *UserRepository) HasRejected(ctx context.Context, userID, targetID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rejections WHERE user_id = $1 AND rejected_user_id = $2)`
	err := r.db.QueryRowContext(ctx, query, userID, targetID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Fullname, &user.Username, &user.Email, &user.Password,
		&user.Gender, &user.DOB,
		&user.Location.City, &user.Location.Country, &user.Location.Lat, &user.Location.Lon,
		&user.Qualification.Type, &user.Qualification.Institute,
		&user.Profession.Type, &user.Profession.Organization,
		pq.Array(&user.Hobbies), pq.Array(&user.Interests),
		&user.Description, &user.RegisterDate,
		&user.HasPendingMatch, &user.InConversation,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
