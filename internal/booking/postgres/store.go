// Package postgres is booking.Store's system-of-record implementation,
// grounded on the same sqlx repo pattern used in internal/catalogue and
// internal/cache/postgres.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/distribn/hotel-gateway/internal/booking"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type orderRow struct {
	PartnerOrderID string         `db:"partner_order_id"`
	OrderID        sql.NullInt64  `db:"order_id"`
	ItemID         sql.NullInt64  `db:"item_id"`
	BookHash       string         `db:"book_hash"`
	BookingHash    string         `db:"booking_hash"`
	State          string         `db:"state"`
	PaymentType    sql.NullString `db:"payment_type"`
	Guests         []byte         `db:"guests"`
	PriceChanged   bool           `db:"price_changed"`
	LastTransition time.Time      `db:"last_transition_at"`
}

func toRow(o booking.Order) (orderRow, error) {
	guests, err := json.Marshal(o.Guests)
	if err != nil {
		return orderRow{}, err
	}
	row := orderRow{
		PartnerOrderID: o.PartnerOrderID,
		BookHash:       o.BookHash,
		BookingHash:    o.BookingHash,
		State:          string(o.State),
		Guests:         guests,
		PriceChanged:   o.PriceChanged,
		LastTransition: o.LastTransition,
	}
	if o.OrderID != 0 {
		row.OrderID = sql.NullInt64{Int64: o.OrderID, Valid: true}
	}
	if o.ItemID != 0 {
		row.ItemID = sql.NullInt64{Int64: o.ItemID, Valid: true}
	}
	if o.PaymentType != "" {
		row.PaymentType = sql.NullString{String: string(o.PaymentType), Valid: true}
	}
	return row, nil
}

func fromRow(row orderRow) (*booking.Order, error) {
	var guests []upstream.Guest
	if len(row.Guests) > 0 {
		if err := json.Unmarshal(row.Guests, &guests); err != nil {
			return nil, err
		}
	}
	o := &booking.Order{
		PartnerOrderID: row.PartnerOrderID,
		OrderID:        row.OrderID.Int64,
		ItemID:         row.ItemID.Int64,
		BookHash:       row.BookHash,
		BookingHash:    row.BookingHash,
		State:          booking.State(row.State),
		PaymentType:    upstream.PaymentType(row.PaymentType.String),
		Guests:         guests,
		PriceChanged:   row.PriceChanged,
		LastTransition: row.LastTransition,
	}
	return o, nil
}

func (s *Store) Create(ctx context.Context, o booking.Order) error {
	row, err := toRow(o)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (partner_order_id, order_id, item_id, book_hash, booking_hash, state, payment_type, guests, price_changed, last_transition_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		row.PartnerOrderID, row.OrderID, row.ItemID, row.BookHash, row.BookingHash, row.State, row.PaymentType, row.Guests, row.PriceChanged)
	return err
}

func (s *Store) Get(ctx context.Context, partnerOrderID string) (*booking.Order, bool, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT partner_order_id, order_id, item_id, book_hash, booking_hash, state, payment_type, guests, price_changed, last_transition_at
		FROM orders WHERE partner_order_id = $1`, partnerOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	o, err := fromRow(row)
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func (s *Store) GetByOrderID(ctx context.Context, orderID int64) (*booking.Order, bool, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT partner_order_id, order_id, item_id, book_hash, booking_hash, state, payment_type, guests, price_changed, last_transition_at
		FROM orders WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	o, err := fromRow(row)
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func (s *Store) Update(ctx context.Context, o booking.Order) error {
	row, err := toRow(o)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE orders SET order_id = $2, item_id = $3, book_hash = $4, booking_hash = $5,
			state = $6, payment_type = $7, guests = $8, price_changed = $9, last_transition_at = now()
		WHERE partner_order_id = $1`,
		row.PartnerOrderID, row.OrderID, row.ItemID, row.BookHash, row.BookingHash, row.State, row.PaymentType, row.Guests, row.PriceChanged)
	return err
}
