package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

const activeSlotConstraint = "appointments_active_slot_uniq"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type schedulingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, schedulingTx{tx: tx})
	})
}

func (r *AppointmentRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, schedulingTx{tx: tx})
	})
}

func (r *AppointmentRepo) ListActiveByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0, limit)
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Provider").
		Where("?TableAlias.client_id = ?", clientID).
		Where("?TableAlias.canceled_at IS NULL").
		OrderExpr("?TableAlias.slot ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) FindUser(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

// lockProviderCalendar serializes booking attempts for one provider until the
// transaction ends. The partial unique index still has the final word.
func lockProviderCalendar(ctx context.Context, tx bun.Tx, providerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Exec(ctx)
	return err
}

func (r schedulingTx) FindProvider(ctx context.Context, providerID uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.tx.NewSelect().
		Model(&u).
		Where("id = ?", providerID).
		Where("provider = TRUE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func (r schedulingTx) ActiveAppointmentExists(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error) {
	return r.tx.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("provider_id = ?", providerID).
		Where("slot = ?", slot.UTC()).
		Where("canceled_at IS NULL").
		Exists(ctx)
}

func (r schedulingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:         appt.ID,
		ClientID:   appt.ClientID,
		ProviderID: appt.ProviderID,
		Slot:       appt.Slot.UTC(),
		CreatedAt:  appt.CreatedAt,
		UpdatedAt:  appt.UpdatedAt,
	}

	_, err := r.tx.NewInsert().Model(&m).Returning("NULL").Exec(ctx)
	if err != nil {
		if isActiveSlotViolation(err) {
			return domain.Appointment{}, store.ErrSlotTaken
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r schedulingTx) GetAppointmentForUpdate(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.tx.NewSelect().
		Model(&appt).
		Relation("Provider").
		Relation("Client").
		Where("?TableAlias.id = ?", appointmentID).
		For("UPDATE OF appointment").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err)
	}
	return appt, nil
}

func (r schedulingTx) MarkCanceled(ctx context.Context, appointmentID uuid.UUID, at time.Time) error {
	res, err := r.tx.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("canceled_at = ?", at.UTC()).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", appointmentID).
		Where("canceled_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isActiveSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == activeSlotConstraint
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
