package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/service/models/address"
	"github.com/jackc/pgx/v5"
)

// AddressDal represents shipping address data access layer model.
type AddressDal struct {
	Id        int64     `db:"id"`
	UserId    int64     `db:"user_id"`
	Receiver  string    `db:"receiver"`
	Phone     string    `db:"phone"`
	Province  string    `db:"province"`
	City      string    `db:"city"`
	District  string    `db:"district"`
	Detail    string    `db:"detail"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

// ToModel converts AddressDal to the service layer Address model.
func (a *AddressDal) ToModel() *address.Address {
	return &address.Address{
		ID:        a.Id,
		UserID:    a.UserId,
		Receiver:  a.Receiver,
		Phone:     a.Phone,
		Province:  a.Province,
		City:      a.City,
		District:  a.District,
		Detail:    a.Detail,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
	}
}

// PostgresAddressRepository is the read-only address book view.
type PostgresAddressRepository struct {
	conn postgres.GenericConn
}

// NewPostgresAddressRepository creates a new Postgres address repository.
func NewPostgresAddressRepository(conn postgres.GenericConn) *PostgresAddressRepository {
	return &PostgresAddressRepository{conn: conn}
}

// GetByID returns a shipping address.
func (r *PostgresAddressRepository) GetByID(ctx context.Context, id int64) (*address.Address, error) {
	const sql = `
		SELECT id, user_id, receiver, phone, province, city, district, detail, is_default, created_at
		FROM user_address
		WHERE id = $1
	`

	var dal AddressDal
	err := r.conn.QueryRow(ctx, sql, id).Scan(
		&dal.Id,
		&dal.UserId,
		&dal.Receiver,
		&dal.Phone,
		&dal.Province,
		&dal.City,
		&dal.District,
		&dal.Detail,
		&dal.IsDefault,
		&dal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return dal.ToModel(), nil
}
