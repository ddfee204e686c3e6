package pack

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

type mockRepo struct {
	packs map[uuid.UUID]*Pack
}

func newMockRepo() *mockRepo {
	return &mockRepo{packs: make(map[uuid.UUID]*Pack)}
}

func (m *mockRepo) Create(_ context.Context, p *Pack) error {
	p.ID = uuid.New()
	cp := *p
	m.packs[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Pack, error) {
	p, ok := m.packs[id]
	if !ok {
		return nil, apperror.E(apperror.NotFound, "pack not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Pack) error {
	cp := *p
	m.packs[p.ID] = &cp
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.packs[id].Active = active
	return nil
}

func (m *mockRepo) ExistsByName(_ context.Context, hospitalID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	for _, p := range m.packs {
		if p.ID != excludeID && p.HospitalID == hospitalID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Pack, int, error) {
	var items []*Pack
	for _, p := range m.packs {
		items = append(items, p)
	}
	return items, len(items), nil
}

type mockHospitals struct {
	known map[uuid.UUID]bool
}

func (m *mockHospitals) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

func newTestService() (*Service, *mockRepo, uuid.UUID) {
	repo := newMockRepo()
	hospID := uuid.New()
	return NewService(repo, &mockHospitals{known: map[uuid.UUID]bool{hospID: true}}), repo, hospID
}

func TestCreate_DuplicateNameSameHospital(t *testing.T) {
	svc, _, hospID := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &Pack{HospitalID: hospID, Name: "Full Checkup", Price: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := svc.Create(ctx, &Pack{HospitalID: hospID, Name: "full checkup", Price: 80})
	if apperror.KindOf(err) != apperror.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestCreate_SameNameDifferentHospital(t *testing.T) {
	repo := newMockRepo()
	h1, h2 := uuid.New(), uuid.New()
	svc := NewService(repo, &mockHospitals{known: map[uuid.UUID]bool{h1: true, h2: true}})
	ctx := context.Background()

	if err := svc.Create(ctx, &Pack{HospitalID: h1, Name: "Full Checkup", Price: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Create(ctx, &Pack{HospitalID: h2, Name: "Full Checkup", Price: 100}); err != nil {
		t.Errorf("same name in another hospital should be allowed, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, hospID := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &Pack{HospitalID: hospID, Price: 10}); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("missing name: expected BadRequest, got %v", err)
	}
	if err := svc.Create(ctx, &Pack{HospitalID: hospID, Name: "X", Price: -1}); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("negative price: expected BadRequest, got %v", err)
	}
	if err := svc.Create(ctx, &Pack{HospitalID: uuid.New(), Name: "X", Price: 1}); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown hospital: expected NotFound, got %v", err)
	}
}

func TestUpdate_CanKeepOwnName(t *testing.T) {
	svc, repo, hospID := newTestService()
	ctx := context.Background()

	p := &Pack{HospitalID: hospID, Name: "Full Checkup", Price: 100}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Renaming to its own current name must not trip the duplicate check.
	if err := svc.Update(ctx, &Pack{ID: p.ID, Name: "Full Checkup", Price: 120}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if repo.packs[p.ID].Price != 120 {
		t.Errorf("expected price 120, got %v", repo.packs[p.ID].Price)
	}
}
