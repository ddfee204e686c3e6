package slot

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/platform/apperror"
)

type mockRepo struct {
	slots map[uuid.UUID]*TimeSlot
}

func newMockRepo() *mockRepo {
	return &mockRepo{slots: make(map[uuid.UUID]*TimeSlot)}
}

func (m *mockRepo) Create(_ context.Context, s *TimeSlot) error {
	s.ID = uuid.New()
	cp := *s
	m.slots[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*TimeSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "time slot not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, s *TimeSlot) error {
	cp := *s
	m.slots[s.ID] = &cp
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.slots[id].Active = active
	return nil
}

func (m *mockRepo) ListByOwner(_ context.Context, owner Owner, activeOnly bool) ([]*TimeSlot, error) {
	var items []*TimeSlot
	for _, s := range m.slots {
		if s.Owner != owner {
			continue
		}
		if activeOnly && !s.Active {
			continue
		}
		cp := *s
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Interval.Start.Index < items[j].Interval.Start.Index
	})
	return items, nil
}

type mockOwners struct {
	doctors map[uuid.UUID]bool
	packs   map[uuid.UUID]bool
}

func (m *mockOwners) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.doctors[id], nil
}

func (m *mockOwners) PackExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.packs[id], nil
}

type mockBookings struct {
	approved map[string]bool // slotID + date
	err      error
}

func bookingKey(slotID uuid.UUID, date time.Time) string {
	return slotID.String() + "@" + date.Format("2006-01-02")
}

func (m *mockBookings) HasApprovedBooking(_ context.Context, slotID uuid.UUID, date time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.approved[bookingKey(slotID, date)], nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	bookings *mockBookings
	doctorID uuid.UUID
	packID   uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	doctorID, packID := uuid.New(), uuid.New()
	owners := &mockOwners{
		doctors: map[uuid.UUID]bool{doctorID: true},
		packs:   map[uuid.UUID]bool{packID: true},
	}
	bookings := &mockBookings{approved: make(map[string]bool)}
	return &fixture{
		svc:      NewService(repo, owners, bookings, zerolog.Nop()),
		repo:     repo,
		bookings: bookings,
		doctorID: doctorID,
		packID:   packID,
	}
}

func (f *fixture) mustCreate(t *testing.T, start, end string) *TimeSlot {
	t.Helper()
	sl, err := f.svc.Create(context.Background(), CreateInput{
		DoctorID: &f.doctorID, Start: start, End: end, Price: 50,
	})
	if err != nil {
		t.Fatalf("create %s-%s: %v", start, end, err)
	}
	return sl
}

func TestNewOwner_ExactlyOne(t *testing.T) {
	d, p := uuid.New(), uuid.New()

	if _, err := NewOwner(&d, &p); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("both owners: expected BadRequest, got %v", err)
	}
	if _, err := NewOwner(nil, nil); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("no owner: expected BadRequest, got %v", err)
	}
	owner, err := NewOwner(&d, nil)
	if err != nil || owner.Kind != OwnerDoctor || owner.ID != d {
		t.Errorf("doctor owner: got %+v, %v", owner, err)
	}
	owner, err = NewOwner(nil, &p)
	if err != nil || owner.Kind != OwnerPack || owner.ID != p {
		t.Errorf("pack owner: got %+v, %v", owner, err)
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")

	_, err := f.svc.Create(context.Background(), CreateInput{
		DoctorID: &f.doctorID, Start: "HALF_PAST_EIGHT_AM", End: "TEN_AM", Price: 50,
	})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("overlapping slot: expected BadRequest, got %v", err)
	}
}

func TestCreate_AdjacentSlotsAllowed(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	f.mustCreate(t, "NINE_AM", "TEN_AM")

	if len(f.repo.slots) != 2 {
		t.Errorf("expected 2 slots, got %d", len(f.repo.slots))
	}
}

func TestCreate_ScansAllSlotsNotJustFirst(t *testing.T) {
	f := newFixture()
	// The first existing slot (by start) does not collide; the second does.
	// The scan must not stop after the first comparison.
	f.mustCreate(t, "ONE_AM", "TWO_AM")
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")

	_, err := f.svc.Create(context.Background(), CreateInput{
		DoctorID: &f.doctorID, Start: "HALF_PAST_EIGHT_AM", End: "TEN_AM", Price: 50,
	})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("expected conflict with second slot, got %v", err)
	}
}

func TestCreate_SameIntervalDifferentOwners(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")

	// A pack may hold the same interval as a doctor.
	if _, err := f.svc.Create(context.Background(), CreateInput{
		PackID: &f.packID, Start: "EIGHT_AM", End: "NINE_AM", Price: 120,
	}); err != nil {
		t.Errorf("different owner, same interval: %v", err)
	}
}

func TestCreate_InactiveSlotsIgnoredByConflictScan(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	if err := f.svc.Deactivate(ctx, sl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateInput{
		DoctorID: &f.doctorID, Start: "EIGHT_AM", End: "NINE_AM", Price: 50,
	}); err != nil {
		t.Errorf("inactive slot must not block creation: %v", err)
	}
}

func TestCreate_UnknownOwner(t *testing.T) {
	f := newFixture()
	unknown := uuid.New()

	_, err := f.svc.Create(context.Background(), CreateInput{
		DoctorID: &unknown, Start: "EIGHT_AM", End: "NINE_AM", Price: 50,
	})
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestCreate_InvalidDefinition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"inverted interval", CreateInput{DoctorID: &f.doctorID, Start: "TEN_AM", End: "NINE_AM"}},
		{"empty interval", CreateInput{DoctorID: &f.doctorID, Start: "NINE_AM", End: "NINE_AM"}},
		{"negative price", CreateInput{DoctorID: &f.doctorID, Start: "NINE_AM", End: "TEN_AM", Price: -1}},
	}
	for _, tc := range cases {
		if _, err := f.svc.Create(ctx, tc.in); apperror.KindOf(err) != apperror.BadRequest {
			t.Errorf("%s: expected BadRequest, got %v", tc.name, err)
		}
	}

	_, err := f.svc.Create(ctx, CreateInput{DoctorID: &f.doctorID, Start: "NOON_ISH", End: "TEN_AM"})
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown mark: expected NotFound, got %v", err)
	}
}

func TestUpdate_NoSelfConflict(t *testing.T) {
	f := newFixture()
	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")

	// Re-submitting the identical interval must not collide with itself.
	got, err := f.svc.Update(context.Background(), sl.ID, UpdateInput{Start: "EIGHT_AM", End: "NINE_AM"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Interval.Start.Key != "EIGHT_AM" {
		t.Errorf("unexpected interval: %+v", got.Interval)
	}
}

func TestUpdate_ConflictWithOtherSlot(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	sl := f.mustCreate(t, "TEN_AM", "HALF_PAST_TEN_AM")

	_, err := f.svc.Update(context.Background(), sl.ID, UpdateInput{Start: "HALF_PAST_EIGHT_AM", End: "HALF_PAST_NINE_AM"})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("expected BadRequest, got %v", err)
	}
}

func TestUpdate_HalfIntervalRejected(t *testing.T) {
	f := newFixture()
	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	ctx := context.Background()

	_, err := f.svc.Update(ctx, sl.ID, UpdateInput{Start: "TEN_AM"})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("start without end: expected BadRequest, got %v", err)
	}
	_, err = f.svc.Update(ctx, sl.ID, UpdateInput{End: "TEN_AM"})
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("end without start: expected BadRequest, got %v", err)
	}
	if got := f.repo.slots[sl.ID].Interval.Start.Key; got != "EIGHT_AM" {
		t.Errorf("slot must be untouched after rejected update, got start %s", got)
	}
}

func TestUpdate_PriceOnly(t *testing.T) {
	f := newFixture()
	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")

	price := 75.0
	got, err := f.svc.Update(context.Background(), sl.ID, UpdateInput{Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Price != 75 || got.Interval.Start.Key != "EIGHT_AM" {
		t.Errorf("unexpected state: %+v", got)
	}
}

func TestActivate_GuardAgainstNewConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// S2 deactivated, then S1 created over part of its range. Bringing S2
	// back must fail.
	s2 := f.mustCreate(t, "TWO_AM", "FOUR_AM")
	if err := f.svc.Deactivate(ctx, s2.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	f.mustCreate(t, "ONE_AM", "THREE_AM")

	if err := f.svc.Activate(ctx, s2.ID); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("expected BadRequest on reactivation, got %v", err)
	}
	if f.repo.slots[s2.ID].Active {
		t.Error("slot must stay inactive after failed reactivation")
	}
}

func TestActivate_ConflictFree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sl := f.mustCreate(t, "TWO_AM", "FOUR_AM")
	if err := f.svc.Deactivate(ctx, sl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := f.svc.Activate(ctx, sl.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !f.repo.slots[sl.ID].Active {
		t.Error("slot should be active again")
	}
}

func TestActivate_AlreadyActiveIsNoop(t *testing.T) {
	f := newFixture()
	sl := f.mustCreate(t, "TWO_AM", "FOUR_AM")

	if err := f.svc.Activate(context.Background(), sl.ID); err != nil {
		t.Errorf("activating an active slot: %v", err)
	}
}

func TestFreeSlots_ExcludesBooked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	s1 := f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	s2 := f.mustCreate(t, "NINE_AM", "TEN_AM")
	f.bookings.approved[bookingKey(s1.ID, date)] = true

	free, err := f.svc.FreeSlots(ctx, Owner{Kind: OwnerDoctor, ID: f.doctorID}, date)
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(free) != 1 || free[0].ID != s2.ID {
		t.Errorf("expected exactly [s2], got %d slots", len(free))
	}
}

func TestFreeSlots_InactiveExcluded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	if err := f.svc.Deactivate(ctx, sl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	free, err := f.svc.FreeSlots(ctx, Owner{Kind: OwnerDoctor, ID: f.doctorID}, date)
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(free) != 0 {
		t.Errorf("inactive slots must not be offered, got %d", len(free))
	}
}

func TestFreeSlots_LookupFailurePropagates(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	f.bookings.err = errors.New("connection reset")

	_, err := f.svc.FreeSlots(context.Background(),
		Owner{Kind: OwnerDoctor, ID: f.doctorID}, time.Now())
	if err == nil {
		t.Error("booking lookup failures must surface, not mark slots busy")
	}
}

func TestFreeSlots_SameSlotFreeOnOtherDate(t *testing.T) {
	f := newFixture()
	booked := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	other := booked.AddDate(0, 0, 1)

	sl := f.mustCreate(t, "EIGHT_AM", "NINE_AM")
	f.bookings.approved[bookingKey(sl.ID, booked)] = true

	free, err := f.svc.FreeSlots(context.Background(), Owner{Kind: OwnerDoctor, ID: f.doctorID}, other)
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(free) != 1 {
		t.Errorf("slot booked on another date must stay free, got %d", len(free))
	}
}
