package repotest

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/prontuario/patients/internal/repo"
	"gorm.io/gorm"
)

// Store is an in-memory repo.PatientRepository for tests. Any *Func field,
// when set, replaces the default behaviour of its method; Calls counts every
// invocation by method name. Not safe for concurrent use.
type Store struct {
	Patients     map[uuid.UUID]*repo.Patient
	Addresses    map[uuid.UUID]*repo.Address
	Appointments map[uuid.UUID][]repo.Appointment
	Audits       []repo.AuditEvent
	Calls        map[string]int

	PatientByIDFunc      func(ctx context.Context, id uuid.UUID) (*repo.Patient, error)
	PatientByCPFHashFunc func(ctx context.Context, cpfHash string) (*repo.Patient, error)
	CreatePatientFunc    func(ctx context.Context, p *repo.Patient) error
	CreateAddressFunc    func(ctx context.Context, a *repo.Address) error
	SavePatientFunc      func(ctx context.Context, p *repo.Patient) error
	ListPatientsFunc     func(ctx context.Context, limit, offset int) ([]repo.Patient, int64, error)
}

var _ repo.PatientRepository = (*Store)(nil)

func New() *Store {
	return &Store{
		Patients:     map[uuid.UUID]*repo.Patient{},
		Addresses:    map[uuid.UUID]*repo.Address{},
		Appointments: map[uuid.UUID][]repo.Appointment{},
		Calls:        map[string]int{},
	}
}

func (m *Store) hit(name string) {
	m.Calls[name]++
}

// Transaction snapshots state and restores it when fn fails.
func (m *Store) Transaction(ctx context.Context, fn func(tx repo.PatientRepository) error) error {
	m.hit("Transaction")
	patients := map[uuid.UUID]repo.Patient{}
	for k, v := range m.Patients {
		patients[k] = *v
	}
	addresses := map[uuid.UUID]repo.Address{}
	for k, v := range m.Addresses {
		addresses[k] = *v
	}
	audits := len(m.Audits)
	if err := fn(m); err != nil {
		m.Patients = map[uuid.UUID]*repo.Patient{}
		for k, v := range patients {
			v := v
			m.Patients[k] = &v
		}
		m.Addresses = map[uuid.UUID]*repo.Address{}
		for k, v := range addresses {
			v := v
			m.Addresses[k] = &v
		}
		m.Audits = m.Audits[:audits]
		return err
	}
	return nil
}

func (m *Store) load(p *repo.Patient) *repo.Patient {
	c := *p
	if p.AddressID != nil {
		if a, ok := m.Addresses[*p.AddressID]; ok {
			ac := *a
			c.Address = &ac
		}
	}
	return &c
}

// Put stores p as is (ids generated when zero) and returns a copy with the address loaded.
func (m *Store) Put(p repo.Patient) *repo.Patient {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Address != nil {
		if p.Address.ID == uuid.Nil {
			p.Address.ID = uuid.New()
		}
		a := *p.Address
		m.Addresses[a.ID] = &a
		p.AddressID = &a.ID
	}
	m.Patients[p.ID] = &p
	return m.load(&p)
}

func (m *Store) PatientByID(ctx context.Context, id uuid.UUID) (*repo.Patient, error) {
	m.hit("PatientByID")
	if m.PatientByIDFunc != nil {
		return m.PatientByIDFunc(ctx, id)
	}
	return m.LoadPatient(id)
}

// LoadPatient is the default PatientByID lookup, for overrides that wrap it.
func (m *Store) LoadPatient(id uuid.UUID) (*repo.Patient, error) {
	p, ok := m.Patients[id]
	if !ok || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return m.load(p), nil
}

func (m *Store) PatientByCPFHash(ctx context.Context, cpfHash string) (*repo.Patient, error) {
	m.hit("PatientByCPFHash")
	if m.PatientByCPFHashFunc != nil {
		return m.PatientByCPFHashFunc(ctx, cpfHash)
	}
	for _, p := range m.Patients {
		if p.CPFHash == cpfHash && !p.DeletedAt.Valid {
			return m.load(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Store) ListPatients(ctx context.Context, limit, offset int) ([]repo.Patient, int64, error) {
	m.hit("ListPatients")
	if m.ListPatientsFunc != nil {
		return m.ListPatientsFunc(ctx, limit, offset)
	}
	var out []repo.Patient
	for _, p := range m.Patients {
		if !p.DeletedAt.Valid {
			out = append(out, *m.load(p))
		}
	}
	return out, int64(len(out)), nil
}

func (m *Store) PatientsByName(ctx context.Context, name string) ([]repo.Patient, error) {
	m.hit("PatientsByName")
	var out []repo.Patient
	for _, p := range m.Patients {
		if p.FullName == name && !p.DeletedAt.Valid {
			out = append(out, *m.load(p))
		}
	}
	return out, nil
}

func (m *Store) CreatePatient(ctx context.Context, p *repo.Patient) error {
	m.hit("CreatePatient")
	if m.CreatePatientFunc != nil {
		return m.CreatePatientFunc(ctx, p)
	}
	p.ID = uuid.New()
	c := *p
	c.Address = nil
	m.Patients[p.ID] = &c
	return nil
}

func (m *Store) SavePatient(ctx context.Context, p *repo.Patient) error {
	m.hit("SavePatient")
	if m.SavePatientFunc != nil {
		return m.SavePatientFunc(ctx, p)
	}
	cur, ok := m.Patients[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	c := *p
	c.Address = nil
	c.CreatedAt = cur.CreatedAt
	m.Patients[p.ID] = &c
	return nil
}

func (m *Store) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	m.hit("DeactivatePatient")
	p, ok := m.Patients[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	p.DeletedAt = gorm.DeletedAt{Valid: true}
	return nil
}

func (m *Store) CreateAddress(ctx context.Context, a *repo.Address) error {
	m.hit("CreateAddress")
	if m.CreateAddressFunc != nil {
		return m.CreateAddressFunc(ctx, a)
	}
	a.ID = uuid.New()
	c := *a
	m.Addresses[a.ID] = &c
	return nil
}

func (m *Store) UpdateAddress(ctx context.Context, a *repo.Address) error {
	m.hit("UpdateAddress")
	if _, ok := m.Addresses[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *a
	m.Addresses[a.ID] = &c
	return nil
}

func (m *Store) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]repo.Appointment, error) {
	m.hit("AppointmentsByPatient")
	return m.Appointments[patientID], nil
}

func (m *Store) CreateAuditEvent(ctx context.Context, ev *repo.AuditEvent, metadata interface{}) error {
	m.hit("CreateAuditEvent")
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		ev.Metadata = b
	}
	m.Audits = append(m.Audits, *ev)
	return nil
}
