package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medbook/bookd/internal/config"
	"github.com/medbook/bookd/internal/domain/doctor"
	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/domain/hospital"
	"github.com/medbook/bookd/internal/domain/order"
	"github.com/medbook/bookd/internal/domain/pack"
	"github.com/medbook/bookd/internal/domain/slot"
	"github.com/medbook/bookd/internal/platform/db"
)

var (
	seedHospitals = []struct {
		name    string
		address string
	}{
		{"Riverside General Hospital", "12 Embankment Road"},
		{"St. Anne Medical Center", "401 Harbor Avenue"},
		{"Northgate Clinic", "77 Pine Hill Street"},
	}
	seedDepartments = []string{"Cardiology", "Dermatology", "Pediatrics", "Orthopedics"}
	seedDoctors     = []string{
		"Dr. Elena Vargas", "Dr. Marcus Webb", "Dr. Priya Nair",
		"Dr. Tomas Lindqvist", "Dr. Aisha Bello", "Dr. Jun Park",
	}
	seedPacks = []string{
		"Annual Health Check", "Cardiac Screening", "Prenatal Care Package", "Full Blood Panel",
	}
	seedSpecialties = []string{"Cardiology", "Dermatology", "Pediatrics", "Orthopedics", "General Practice"}
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, rand.New(rand.NewSource(seed)))
		},
	}
	cmd.Flags().Int64("seed", 1, "Random source seed for reproducible data")
	return cmd
}

// runSeed inserts sample hospitals, staff, packs, and time slots. Data
// goes through the services so the usual validation applies.
func runSeed(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	hospitalRepo := hospital.NewRepoPG(pool)
	departmentRepo := hospital.NewDepartmentRepoPG(pool)
	doctorRepo := doctor.NewRepoPG(pool)
	packRepo := pack.NewRepoPG(pool)
	orderRepo := order.NewRepoPG(pool)

	hospitals := hospitalDirectory{hospitals: hospitalRepo}
	hospitalSvc := hospital.NewService(hospitalRepo, departmentRepo)
	doctorSvc := doctor.NewService(doctorRepo, hospitals)
	packSvc := pack.NewService(packRepo, hospitals)
	slotSvc := slot.NewService(slot.NewRepoPG(pool), ownerDirectory{doctors: doctorRepo, packs: packRepo}, orderRepo, zerolog.Nop())

	doctorIdx := 0
	for _, sh := range seedHospitals {
		h := &hospital.Hospital{Name: sh.name, Address: sh.address}
		if err := hospitalSvc.Create(ctx, h); err != nil {
			return fmt.Errorf("seed hospital %q: %w", sh.name, err)
		}

		for _, dn := range pick(rng, seedDepartments, 2) {
			d := &hospital.Department{HospitalID: h.ID, Name: dn}
			if err := hospitalSvc.CreateDepartment(ctx, d); err != nil {
				return fmt.Errorf("seed department %q: %w", dn, err)
			}
		}

		for i := 0; i < 2 && doctorIdx < len(seedDoctors); i++ {
			spec := seedSpecialties[rng.Intn(len(seedSpecialties))]
			doc := &doctor.Doctor{HospitalID: h.ID, Name: seedDoctors[doctorIdx], Specialty: &spec}
			if err := doctorSvc.Create(ctx, doc); err != nil {
				return fmt.Errorf("seed doctor %q: %w", doc.Name, err)
			}
			doctorIdx++

			if err := seedSlots(ctx, slotSvc, rng, slot.CreateInput{DoctorID: &doc.ID}); err != nil {
				return fmt.Errorf("seed slots for %q: %w", doc.Name, err)
			}
		}

		pn := seedPacks[rng.Intn(len(seedPacks))]
		p := &pack.Pack{HospitalID: h.ID, Name: pn, Price: float64(50 + rng.Intn(400))}
		if err := packSvc.Create(ctx, p); err != nil {
			return fmt.Errorf("seed pack %q: %w", pn, err)
		}
		if err := seedSlots(ctx, slotSvc, rng, slot.CreateInput{PackID: &p.ID}); err != nil {
			return fmt.Errorf("seed slots for %q: %w", pn, err)
		}
	}

	fmt.Println("Sample data created.")
	return nil
}

// seedSlots lays out a few non-overlapping morning and afternoon slots
// for one owner. The base input carries the owner; start, end, and
// price are filled in here.
func seedSlots(ctx context.Context, svc *slot.Service, rng *rand.Rand, base slot.CreateInput) error {
	// Marks 15 (8:00 AM) through 39 (8:00 PM), two marks per slot.
	start := 15
	for i := 0; i < 4; i++ {
		startMark, err := grid.MarkByIndex(start)
		if err != nil {
			return err
		}
		endMark, err := grid.MarkByIndex(start + 2)
		if err != nil {
			return err
		}

		in := base
		in.Start = startMark.Key
		in.End = endMark.Key
		in.Price = float64(20 + rng.Intn(80))
		if _, err := svc.Create(ctx, in); err != nil {
			return err
		}

		// Leave a gap between consecutive slots.
		start += 2 + rng.Intn(3)
	}
	return nil
}

// pick returns n distinct random elements of items.
func pick(rng *rand.Rand, items []string, n int) []string {
	perm := rng.Perm(len(items))
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, items[idx])
	}
	return out
}
