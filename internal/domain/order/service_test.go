package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/domain/slot"
	"github.com/medbook/bookd/internal/platform/apperror"
)

type mockRepo struct {
	orders    map[uuid.UUID]*Order
	diagnoses map[uuid.UUID]*Diagnosis // keyed by booking id
	// approveFails simulates the partial unique index firing on a
	// concurrent approval.
	approveFails bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		orders:    make(map[uuid.UUID]*Order),
		diagnoses: make(map[uuid.UUID]*Diagnosis),
	}
}

func (m *mockRepo) Create(_ context.Context, o *Order) error {
	o.ID = uuid.New()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "booking not found")
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, o *Order) error {
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status Status) error {
	if status == StatusApproved && m.approveFails {
		return apperror.E(apperror.AlreadyExists, "slot already has an approved booking for that date")
	}
	m.orders[id].Status = status
	return nil
}

func (m *mockRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var items []*Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			items = append(items, o)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByOwner(_ context.Context, owner slot.Owner, status Status, limit, offset int) ([]*Order, int, error) {
	var items []*Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			items = append(items, o)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListPendingForSlot(_ context.Context, slotID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]*Order, error) {
	var items []*Order
	for _, o := range m.orders {
		if o.SlotID == slotID && o.BookingDate.Equal(date) && o.Status == StatusPending && o.ID != excludeID {
			cp := *o
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockRepo) HasApprovedBooking(_ context.Context, slotID uuid.UUID, date time.Time) (bool, error) {
	for _, o := range m.orders {
		if o.SlotID == slotID && o.BookingDate.Equal(date) && o.Status == StatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) RejectStalePending(_ context.Context, before time.Time) ([]*Order, error) {
	var swept []*Order
	for _, o := range m.orders {
		if o.Status == StatusPending && o.BookingDate.Before(before) {
			o.Status = StatusRejected
			cp := *o
			swept = append(swept, &cp)
		}
	}
	return swept, nil
}

func (m *mockRepo) CreateDiagnosis(_ context.Context, d *Diagnosis) error {
	if _, ok := m.diagnoses[d.OrderID]; ok {
		return apperror.E(apperror.AlreadyExists, "booking already has a diagnosis")
	}
	d.ID = uuid.New()
	cp := *d
	m.diagnoses[d.OrderID] = &cp
	return nil
}

func (m *mockRepo) GetDiagnosisByOrder(_ context.Context, orderID uuid.UUID) (*Diagnosis, error) {
	d, ok := m.diagnoses[orderID]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "diagnosis not found")
	}
	cp := *d
	return &cp, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockSlots struct {
	slots map[uuid.UUID]*slot.TimeSlot
}

func (m *mockSlots) GetByID(_ context.Context, id uuid.UUID) (*slot.TimeSlot, error) {
	sl, ok := m.slots[id]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "time slot not found")
	}
	return sl, nil
}

type mockCustomers struct {
	byUser map[uuid.UUID]*Customer
}

func (m *mockCustomers) GetByUserID(_ context.Context, userID uuid.UUID) (*Customer, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "customer not found")
	}
	return c, nil
}

func (m *mockCustomers) GetByID(_ context.Context, id uuid.UUID) (*Customer, error) {
	for _, c := range m.byUser {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperror.E(apperror.NotFound, "customer not found")
}

type fixedAddress string

func (a fixedAddress) OwnerAddress(_ context.Context, _ slot.Owner) (string, error) {
	return string(a), nil
}

type recordingNotifier struct {
	sent []string // "recipient: subject"
}

func (n *recordingNotifier) Enqueue(_ context.Context, recipient, subject, _ string) error {
	n.sent = append(n.sent, recipient+": "+subject)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	slots     *mockSlots
	customers *mockCustomers
	notifier  *recordingNotifier
	userID    uuid.UUID
	doctorID  uuid.UUID
	slotID    uuid.UUID
}

func mustInterval(t *testing.T, start, end string) grid.Interval {
	t.Helper()
	iv, err := grid.ParseInterval(start, end)
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	return iv
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	userID := uuid.New()
	doctorID := uuid.New()
	sl := &slot.TimeSlot{
		ID:       uuid.New(),
		Owner:    slot.Owner{Kind: slot.OwnerDoctor, ID: doctorID},
		Interval: mustInterval(t, "EIGHT_AM", "NINE_AM"),
		Price:    50,
		Active:   true,
	}
	customers := &mockCustomers{byUser: map[uuid.UUID]*Customer{
		userID: {ID: uuid.New(), Email: "ann@example.com", Name: "Ann"},
	}}
	notifier := &recordingNotifier{}
	slots := &mockSlots{slots: map[uuid.UUID]*slot.TimeSlot{sl.ID: sl}}
	svc := NewService(repo, passthroughTx{}, slots,
		customers, fixedAddress("1 Main St"), notifier, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, slots: slots, customers: customers,
		notifier: notifier, userID: userID, doctorID: doctorID, slotID: sl.ID}
}

func (f *fixture) mustBook(t *testing.T, date string) *Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), f.userID, CreateInput{SlotID: f.slotID, BookingDate: date})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return o
}

func TestCreate_SnapshotsPriceAndAddress(t *testing.T) {
	f := newFixture(t)

	o := f.mustBook(t, "2026-09-01")
	if o.Status != StatusPending {
		t.Errorf("new booking must be PENDING, got %s", o.Status)
	}
	if o.Price != 50 {
		t.Errorf("price snapshot: expected 50, got %v", o.Price)
	}
	if o.Address == nil || *o.Address != "1 Main St" {
		t.Errorf("address snapshot missing: %+v", o.Address)
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("expected 1 notification, got %d", len(f.notifier.sent))
	}
}

func TestCreate_InvalidDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.userID, CreateInput{SlotID: f.slotID, BookingDate: "soon"})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("expected BadRequest, got %v", err)
	}
	_, err = f.svc.Create(context.Background(), f.userID, CreateInput{SlotID: f.slotID})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("missing date: expected BadRequest, got %v", err)
	}
}

func TestCreate_SlotAlreadyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.mustBook(t, "2026-09-01")
	if err := f.svc.Approve(ctx, first.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := f.svc.Create(ctx, f.userID, CreateInput{SlotID: f.slotID, BookingDate: "2026-09-01"})
	if apperror.KindOf(err) != apperror.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
	// The same slot on another day is still bookable.
	if _, err := f.svc.Create(ctx, f.userID, CreateInput{SlotID: f.slotID, BookingDate: "2026-09-02"}); err != nil {
		t.Errorf("other date should be bookable: %v", err)
	}
}

func TestApprove_RejectsCompetingPendings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	winner := f.mustBook(t, "2026-09-01")
	loser1 := f.mustBook(t, "2026-09-01")
	loser2 := f.mustBook(t, "2026-09-01")
	otherDay := f.mustBook(t, "2026-09-02")

	if err := f.svc.Approve(ctx, winner.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := f.repo.orders[winner.ID].Status; got != StatusApproved {
		t.Errorf("winner: expected APPROVED, got %s", got)
	}
	for _, loser := range []*Order{loser1, loser2} {
		if got := f.repo.orders[loser.ID].Status; got != StatusRejected {
			t.Errorf("competing booking: expected REJECTED, got %s", got)
		}
	}
	if got := f.repo.orders[otherDay.ID].Status; got != StatusPending {
		t.Errorf("booking on another date must stay PENDING, got %s", got)
	}
}

func TestApprove_ConcurrentLoserSurfacesConflict(t *testing.T) {
	f := newFixture(t)
	o := f.mustBook(t, "2026-09-01")
	f.repo.approveFails = true

	err := f.svc.Approve(context.Background(), o.ID)
	if apperror.KindOf(err) != apperror.AlreadyExists {
		t.Errorf("expected AlreadyExists from unique index, got %v", err)
	}
	if got := f.repo.orders[o.ID].Status; got != StatusPending {
		t.Errorf("failed approval must leave booking PENDING, got %s", got)
	}
}

func TestStatusMachine_Transitions(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusComplete, false},
		{StatusApproved, StatusComplete, true},
		{StatusApproved, StatusCanceled, true},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusComplete, StatusCanceled, false},
		{StatusCanceled, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestReject_TerminalStateBlocksFurtherMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if err := f.svc.Reject(ctx, o.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := f.svc.Approve(ctx, o.ID); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("approving a rejected booking: expected BadRequest, got %v", err)
	}
}

func TestComplete_RequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if err := f.svc.Complete(ctx, o.ID); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("completing a pending booking: expected BadRequest, got %v", err)
	}
	if err := f.svc.Approve(ctx, o.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.svc.Complete(ctx, o.ID); err != nil {
		t.Errorf("complete: %v", err)
	}
}

func TestCancelOwn_OnlyOwnBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if err := f.svc.CancelOwn(ctx, uuid.New(), o.ID); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("stranger canceling: expected NotFound, got %v", err)
	}
	if err := f.svc.CancelOwn(ctx, f.userID, o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.repo.orders[o.ID].Status; got != StatusCanceled {
		t.Errorf("expected CANCELED, got %s", got)
	}
}

func TestUpdateOwn_ApprovedGoesBackToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if err := f.svc.Approve(ctx, o.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	upd, err := f.svc.UpdateOwn(ctx, f.userID, o.ID, UpdateInput{BookingDate: "2026-09-03"})
	if err != nil {
		t.Fatalf("edit approved booking: %v", err)
	}
	if upd.Status != StatusPending {
		t.Errorf("edited booking must return to PENDING, got %s", upd.Status)
	}
	if got := f.repo.orders[o.ID].Status; got != StatusPending {
		t.Errorf("stored status: expected PENDING, got %s", got)
	}
}

func TestUpdateOwn_TerminalStatesImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if err := f.svc.CancelOwn(ctx, f.userID, o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.svc.UpdateOwn(ctx, f.userID, o.ID, UpdateInput{BookingDate: "2026-09-03"})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("editing canceled booking: expected BadRequest, got %v", err)
	}
}

func TestCreateFor_OwnerMustMatchSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{SlotID: f.slotID, BookingDate: "2026-09-01"}

	_, err := f.svc.CreateFor(ctx, f.userID, slot.Owner{Kind: slot.OwnerPack, ID: uuid.New()}, in)
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("pack path with doctor slot: expected BadRequest, got %v", err)
	}
	_, err = f.svc.CreateFor(ctx, f.userID, slot.Owner{Kind: slot.OwnerDoctor, ID: uuid.New()}, in)
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("other doctor's slot: expected BadRequest, got %v", err)
	}
	if _, err := f.svc.CreateFor(ctx, f.userID, slot.Owner{Kind: slot.OwnerDoctor, ID: f.doctorID}, in); err != nil {
		t.Errorf("matching owner: %v", err)
	}
}

func TestUpdateOwn_ReslotResnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &slot.TimeSlot{
		ID:       uuid.New(),
		Owner:    slot.Owner{Kind: slot.OwnerDoctor, ID: f.doctorID},
		Interval: mustInterval(t, "TEN_AM", "ELEVEN_AM"),
		Price:    80,
		Active:   true,
	}
	f.slots.slots[other.ID] = other

	o := f.mustBook(t, "2026-09-01")
	upd, err := f.svc.UpdateOwn(ctx, f.userID, o.ID, UpdateInput{SlotID: &other.ID})
	if err != nil {
		t.Fatalf("reslot: %v", err)
	}
	if upd.SlotID != other.ID {
		t.Errorf("slot not moved: %s", upd.SlotID)
	}
	if upd.Price != 80 {
		t.Errorf("price must be re-snapshotted, got %v", upd.Price)
	}
	if upd.Status != StatusPending {
		t.Errorf("edited booking must stay PENDING, got %s", upd.Status)
	}
}

func TestRejectStale_SweepsPastPendings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.mustBook(t, "2026-08-20")
	future := f.mustBook(t, "2026-09-10")

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	sentBefore := len(f.notifier.sent)
	if err := f.svc.RejectStale(ctx, now); err != nil {
		t.Fatalf("reject stale: %v", err)
	}
	if got := f.repo.orders[past.ID].Status; got != StatusRejected {
		t.Errorf("past pending: expected REJECTED, got %s", got)
	}
	if got := f.repo.orders[future.ID].Status; got != StatusPending {
		t.Errorf("future pending: expected PENDING, got %s", got)
	}
	if got := len(f.notifier.sent) - sentBefore; got != 1 {
		t.Errorf("expected 1 rejection notification from the sweep, got %d", got)
	}
}

func TestDiagnose_OnePerBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if _, err := f.svc.Diagnose(ctx, o.ID, DiagnoseInput{}); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("empty description: expected BadRequest, got %v", err)
	}
	if _, err := f.svc.Diagnose(ctx, uuid.New(), DiagnoseInput{Description: "flu"}); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown booking: expected NotFound, got %v", err)
	}

	d, err := f.svc.Diagnose(ctx, o.ID, DiagnoseInput{Description: "seasonal flu, rest advised"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if d.OrderID != o.ID {
		t.Errorf("diagnosis bound to wrong booking: %s", d.OrderID)
	}
	if _, err := f.svc.Diagnose(ctx, o.ID, DiagnoseInput{Description: "second opinion"}); apperror.KindOf(err) != apperror.AlreadyExists {
		t.Errorf("second diagnosis: expected AlreadyExists, got %v", err)
	}
}

func TestGetDiagnosisFor_CustomerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.mustBook(t, "2026-09-01")
	if _, err := f.svc.Diagnose(ctx, o.ID, DiagnoseInput{Description: "sprained ankle"}); err != nil {
		t.Fatalf("diagnose: %v", err)
	}

	if _, err := f.svc.GetDiagnosisFor(ctx, f.userID, o.ID); err != nil {
		t.Errorf("booking owner: %v", err)
	}

	// A different customer must not see it.
	strangerUser := uuid.New()
	f.customers.byUser[strangerUser] = &Customer{ID: uuid.New(), Email: "bob@example.com", Name: "Bob"}
	if _, err := f.svc.GetDiagnosisFor(ctx, strangerUser, o.ID); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("other customer: expected NotFound, got %v", err)
	}

	// Staff accounts carry no customer profile and read any booking.
	if _, err := f.svc.GetDiagnosisFor(ctx, uuid.New(), o.ID); err != nil {
		t.Errorf("staff account: %v", err)
	}
}
