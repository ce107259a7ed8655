// Package seed fills an empty database with demo data for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prontuario/patients/internal/crypto"
	"github.com/prontuario/patients/internal/patient"
	"github.com/prontuario/patients/internal/repo"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Result counts what Run inserted.
type Result struct {
	Specialists  int
	Patients     int
	Appointments int
}

var demoSpecialists = []repo.Specialist{
	{FullName: "Dra. Helena Prado", Specialty: "Cardiologia"},
	{FullName: "Dr. Rafael Nunes", Specialty: "Clínica Geral"},
}

func demoPatients() []patient.CreatePatientRequest {
	yes := true
	return []patient.CreatePatientRequest{
		{
			CPF: "529.982.247-25", Name: "Maria da Silva", Email: "maria@paciente.local", Password: "Paciente123!",
			Active: &yes, Phone: "11988887777", HasPlan: true,
			Plans:   []patient.PlanRequest{{Provider: "Unimed", Product: "Nacional", CardNumber: "0012345678"}},
			Address: &patient.AddressRequest{CEP: "01310-100", Street: "Av. Paulista", State: "SP", Number: "1000"},
		},
		{
			CPF: "111.444.777-35", Name: "João Pereira", Email: "joao@paciente.local", Password: "Paciente123!",
			Active: &yes, Phone: "21977776666",
		},
	}
}

// Run is a no-op when any patient exists. Patients go through patient.Service so
// CPF and password are stored exactly as the API stores them. Everything runs in
// one transaction: a failure leaves the database as it was.
func Run(ctx context.Context, db *gorm.DB, hasher patient.PasswordHasher, keys *crypto.KeyRing, log zerolog.Logger) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = run(ctx, tx, patient.NewService(repo.NewStore(tx), hasher, keys), log)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if res != (Result{}) {
		log.Info().Int("specialists", res.Specialists).Int("patients", res.Patients).Int("appointments", res.Appointments).Msg("seed aplicado")
	}
	return res, nil
}

func run(ctx context.Context, db *gorm.DB, svc *patient.Service, log zerolog.Logger) (Result, error) {
	var res Result
	var n int64
	if err := db.WithContext(ctx).Model(&repo.Patient{}).Unscoped().Count(&n).Error; err != nil {
		return res, err
	}
	if n > 0 {
		log.Info().Int64("patients", n).Msg("seed: banco já tem pacientes, nada a fazer")
		return res, nil
	}

	specs := make([]repo.Specialist, len(demoSpecialists))
	for i, s := range demoSpecialists {
		s.ID = uuid.New()
		specs[i] = s
	}
	if err := db.WithContext(ctx).Create(&specs).Error; err != nil {
		return res, fmt.Errorf("seed specialists: %w", err)
	}
	res.Specialists = len(specs)

	ctx = patient.WithActor(ctx, patient.Actor{Type: "SEED"})
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i, req := range demoPatients() {
		v, err := svc.Create(ctx, req)
		if err != nil {
			return res, fmt.Errorf("seed patient %d: %w", i, err)
		}
		res.Patients++
		appt := repo.Appointment{
			ID:           uuid.New(),
			PatientID:    uuid.MustParse(v.ID),
			SpecialistID: &specs[i%len(specs)].ID,
			Date:         day.Add(time.Duration(24*(i+1)+9) * time.Hour),
			Reminder:     true,
			Reminders:    pq.StringArray{"24h", "2h"},
			Status:       "AGENDADO",
		}
		if err := db.WithContext(ctx).Omit("Specialist").Create(&appt).Error; err != nil {
			return res, fmt.Errorf("seed appointment: %w", err)
		}
		res.Appointments++
	}
	return res, nil
}
