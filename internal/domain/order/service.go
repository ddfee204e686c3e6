package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/domain/slot"
	"github.com/medbook/bookd/internal/platform/apperror"
)

const dateLayout = "2006-01-02"

type Service struct {
	orders    Repository
	tx        TxRunner
	slots     SlotCatalog
	customers CustomerDirectory
	addresses AddressResolver
	notifier  Notifier
	logger    zerolog.Logger
}

func NewService(orders Repository, tx TxRunner, slots SlotCatalog, customers CustomerDirectory,
	addresses AddressResolver, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		orders:    orders,
		tx:        tx,
		slots:     slots,
		customers: customers,
		addresses: addresses,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateInput carries a booking request from the boundary layer.
type CreateInput struct {
	SlotID      uuid.UUID `json:"slot_id"`
	BookingDate string    `json:"booking_date"`
	Symptom     *string   `json:"symptom,omitempty"`
}

// Create places a PENDING booking for the authenticated user. The slot
// price and the hospital address are snapshotted onto the booking.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Order, error) {
	cust, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sl, err := s.slots.GetByID(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}
	if !sl.Active {
		return nil, apperror.E(apperror.BadRequest, "time slot is not open for booking")
	}
	date, err := parseBookingDate(in.BookingDate)
	if err != nil {
		return nil, err
	}
	booked, err := s.orders.HasApprovedBooking(ctx, sl.ID, date)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, apperror.E(apperror.AlreadyExists, "slot already has an approved booking for that date")
	}
	address, err := s.addresses.OwnerAddress(ctx, sl.Owner)
	if err != nil {
		return nil, err
	}

	o := &Order{
		CustomerID:  cust.ID,
		SlotID:      sl.ID,
		BookingDate: date,
		Status:      StatusPending,
		Price:       sl.Price,
		Address:     &address,
		Symptom:     in.Symptom,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.notify(ctx, cust, "Booking received",
		fmt.Sprintf("Your booking for %s on %s is awaiting approval.",
			sl.Interval.Label(), date.Format(dateLayout)))
	return o, nil
}

// CreateFor places a booking against a slot that must belong to the
// owner named in the URL.
func (s *Service) CreateFor(ctx context.Context, userID uuid.UUID, owner slot.Owner, in CreateInput) (*Order, error) {
	sl, err := s.slots.GetByID(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}
	if sl.Owner != owner {
		return nil, apperror.Errorf(apperror.BadRequest, "time slot does not belong to this %s", owner.Kind)
	}
	return s.Create(ctx, userID, in)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UpdateInput carries the fields a customer may change while a booking
// is still pending.
type UpdateInput struct {
	SlotID      *uuid.UUID `json:"slot_id,omitempty"`
	BookingDate string     `json:"booking_date"`
	Symptom     *string    `json:"symptom,omitempty"`
}

// UpdateOwn edits the caller's own booking. Moving it to another slot
// re-snapshots the price and the visit address. Editing an approved or
// rejected booking sends it back to PENDING for re-approval; completed
// and canceled bookings are immutable.
func (s *Service) UpdateOwn(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*Order, error) {
	cust, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != cust.ID {
		return nil, apperror.E(apperror.NotFound, "booking not found")
	}
	if o.Status == StatusComplete || o.Status == StatusCanceled {
		return nil, apperror.Errorf(apperror.BadRequest, "a %s booking can no longer be edited", o.Status)
	}

	date := o.BookingDate
	if in.BookingDate != "" {
		date, err = parseBookingDate(in.BookingDate)
		if err != nil {
			return nil, err
		}
	}
	slotID := o.SlotID
	if in.SlotID != nil && *in.SlotID != o.SlotID {
		sl, err := s.slots.GetByID(ctx, *in.SlotID)
		if err != nil {
			return nil, err
		}
		if !sl.Active {
			return nil, apperror.E(apperror.BadRequest, "time slot is not open for booking")
		}
		address, err := s.addresses.OwnerAddress(ctx, sl.Owner)
		if err != nil {
			return nil, err
		}
		slotID = sl.ID
		o.Price = sl.Price
		o.Address = &address
	}
	if slotID != o.SlotID || !date.Equal(o.BookingDate) {
		booked, err := s.orders.HasApprovedBooking(ctx, slotID, date)
		if err != nil {
			return nil, err
		}
		if booked {
			return nil, apperror.E(apperror.AlreadyExists, "slot already has an approved booking for that date")
		}
		o.SlotID = slotID
		o.BookingDate = date
	}
	if in.Symptom != nil {
		o.Symptom = in.Symptom
	}
	o.Status = StatusPending
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(ctx, cust, "Booking updated",
		fmt.Sprintf("Your booking was moved to %s.", o.BookingDate.Format(dateLayout)))
	return o, nil
}

// Approve confirms a pending booking. The status flip and the
// auto-rejection of competing pending bookings commit atomically; the
// partial unique index on approved (slot, date) pairs backstops
// concurrent approvals.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	var approved *Order
	var losers []*Order
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(StatusApproved) {
			return transitionError(o.Status, StatusApproved)
		}
		if err := s.orders.SetStatus(ctx, o.ID, StatusApproved); err != nil {
			return err
		}
		competing, err := s.orders.ListPendingForSlot(ctx, o.SlotID, o.BookingDate, o.ID)
		if err != nil {
			return err
		}
		for _, c := range competing {
			if err := s.orders.SetStatus(ctx, c.ID, StatusRejected); err != nil {
				return err
			}
		}
		approved, losers = o, competing
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyCustomer(ctx, approved.CustomerID, "Booking approved",
		fmt.Sprintf("Your booking on %s was approved.", approved.BookingDate.Format(dateLayout)))
	for _, l := range losers {
		s.notifyCustomer(ctx, l.CustomerID, "Booking rejected",
			fmt.Sprintf("Your booking on %s was rejected because the slot was taken.", l.BookingDate.Format(dateLayout)))
	}
	return nil
}

// Reject declines a pending booking.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	o, err := s.transition(ctx, id, StatusRejected)
	if err != nil {
		return err
	}
	s.notifyCustomer(ctx, o.CustomerID, "Booking rejected",
		fmt.Sprintf("Your booking on %s was rejected.", o.BookingDate.Format(dateLayout)))
	return nil
}

// Complete marks an approved booking as fulfilled.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	_, err := s.transition(ctx, id, StatusComplete)
	return err
}

// CancelOwn cancels the caller's own booking.
func (s *Service) CancelOwn(ctx context.Context, userID, id uuid.UUID) error {
	cust, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.CustomerID != cust.ID {
		return apperror.E(apperror.NotFound, "booking not found")
	}
	if !o.Status.CanTransition(StatusCanceled) {
		return transitionError(o.Status, StatusCanceled)
	}
	return s.orders.SetStatus(ctx, o.ID, StatusCanceled)
}

// ListOwn returns the caller's bookings, newest first.
func (s *Service) ListOwn(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	cust, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.orders.ListByCustomer(ctx, cust.ID, limit, offset)
}

// ListForOwner returns the bookings held against a doctor's or pack's
// slots, optionally filtered by status.
func (s *Service) ListForOwner(ctx context.Context, owner slot.Owner, status Status, limit, offset int) ([]*Order, int, error) {
	if status != "" {
		if err := status.validate(); err != nil {
			return nil, 0, err
		}
	}
	return s.orders.ListByOwner(ctx, owner, status, limit, offset)
}

// RejectStale sweeps pending bookings whose date has passed, telling
// each customer. Wired to the nightly cron job.
func (s *Service) RejectStale(ctx context.Context, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	swept, err := s.orders.RejectStalePending(ctx, today)
	if err != nil {
		return err
	}
	for _, o := range swept {
		s.notifyCustomer(ctx, o.CustomerID, "Booking rejected",
			fmt.Sprintf("Your booking on %s was rejected because the date passed.", o.BookingDate.Format(dateLayout)))
	}
	if len(swept) > 0 {
		s.logger.Info().Int("rejected", len(swept)).Msg("rejected stale pending bookings")
	}
	return nil
}

// DiagnoseInput carries the doctor's note for a visit.
type DiagnoseInput struct {
	Description string `json:"description"`
}

// Diagnose records the visit outcome against a booking. A booking takes
// one diagnosis; recording a second fails with AlreadyExists.
func (s *Service) Diagnose(ctx context.Context, orderID uuid.UUID, in DiagnoseInput) (*Diagnosis, error) {
	if in.Description == "" {
		return nil, apperror.E(apperror.BadRequest, "description is required")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	d := &Diagnosis{OrderID: o.ID, Description: in.Description}
	if err := s.orders.CreateDiagnosis(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDiagnosisFor returns the diagnosis recorded against a booking.
// Callers holding a customer profile may only read their own; staff
// accounts carry no profile and read any.
func (s *Service) GetDiagnosisFor(ctx context.Context, userID, orderID uuid.UUID) (*Diagnosis, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cust, err := s.customers.GetByUserID(ctx, userID); err == nil && cust.ID != o.CustomerID {
		return nil, apperror.E(apperror.NotFound, "booking not found")
	}
	return s.orders.GetDiagnosisByOrder(ctx, orderID)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(next) {
		return nil, transitionError(o.Status, next)
	}
	if err := s.orders.SetStatus(ctx, o.ID, next); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) notifyCustomer(ctx context.Context, customerID uuid.UUID, subject, body string) {
	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID.String()).Msg("customer lookup for notification failed")
		return
	}
	s.notify(ctx, cust, subject, body)
}

func (s *Service) notify(ctx context.Context, cust *Customer, subject, body string) {
	if cust.Email == "" {
		return
	}
	if err := s.notifier.Enqueue(ctx, cust.Email, subject, body); err != nil {
		s.logger.Warn().Err(err).Msg("enqueue notification failed")
	}
}

func transitionError(from, to Status) error {
	return apperror.Errorf(apperror.BadRequest, "cannot move booking from %s to %s", from, to)
}

func parseBookingDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperror.E(apperror.BadRequest, "booking_date is required")
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.E(apperror.BadRequest, "booking_date must be YYYY-MM-DD")
	}
	return date, nil
}
