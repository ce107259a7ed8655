package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prontuario/patients/internal/crypto"
	"github.com/prontuario/patients/internal/repo"
)

// PasswordHasher is satisfied by auth.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}

// Actor identifies who performs a write; recorded in the audit trail.
type Actor struct {
	Type      string
	ID        string
	RequestID string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func actorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	if a.Type == "" {
		a.Type = "SYSTEM"
	}
	return a
}

// Service implements the patient record workflow on top of a repo.PatientRepository.
type Service struct {
	repo   repo.PatientRepository
	hasher PasswordHasher
	keys   *crypto.KeyRing
}

// NewService builds the service. keys may be nil, in which case the CPF is kept only as hash.
func NewService(r repo.PatientRepository, hasher PasswordHasher, keys *crypto.KeyRing) *Service {
	return &Service{repo: r, hasher: hasher, keys: keys}
}

func (s *Service) patient(ctx context.Context, r repo.PatientRepository, id uuid.UUID) (*repo.Patient, error) {
	p, err := r.PatientByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, persistence("load patient", err)
	}
	return p, nil
}

func (s *Service) sealCPF(p *repo.Patient, cpf string) error {
	p.CPFHash = crypto.CPFHash(cpf)
	if s.keys == nil {
		p.CPFEncrypted, p.CPFNonce, p.CPFKeyVersion = nil, nil, ""
		return nil
	}
	ct, nonce, ver, err := s.keys.Seal([]byte(cpf))
	if err != nil {
		return err
	}
	p.CPFEncrypted, p.CPFNonce, p.CPFKeyVersion = ct, nonce, ver
	return nil
}

func (s *Service) audit(ctx context.Context, tx repo.PatientRepository, action string, id uuid.UUID, metadata interface{}) error {
	a := actorFrom(ctx)
	ev := &repo.AuditEvent{
		Action:       action,
		ActorType:    a.Type,
		ResourceType: "PATIENT",
		ResourceID:   &id,
	}
	if a.ID != "" {
		ev.ActorID = &a.ID
	}
	if a.RequestID != "" {
		ev.RequestID = &a.RequestID
	}
	return tx.CreateAuditEvent(ctx, ev, metadata)
}

func parseImageID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "imagemId", Rule: "uuid", Message: message("uuid", "")}}}
	}
	return &id, nil
}

// finish maps an error leaving a transaction. Domain errors pass through.
func finish(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidCPF), errors.Is(err, ErrPersistence):
		return err
	case repo.IsUniqueViolation(err):
		return ErrConflict
	case repo.IsNotFound(err):
		return ErrNotFound
	default:
		return persistence(op, err)
	}
}

// Create registers a new patient. Gates run in order: sanitize, schema, CPF
// checksum, CPF uniqueness; the first failure stops the workflow.
func (s *Service) Create(ctx context.Context, req CreatePatientRequest) (*PublicView, error) {
	req = SanitizeCreate(req)
	if err := Validate(req); err != nil {
		return nil, err
	}
	if !crypto.ValidCPF(req.CPF) {
		return nil, ErrInvalidCPF
	}
	if _, err := s.repo.PatientByCPFHash(ctx, crypto.CPFHash(req.CPF)); err == nil {
		return nil, ErrConflict
	} else if !repo.IsNotFound(err) {
		return nil, persistence("check cpf", err)
	}
	plans, err := MapPlans(req.HasPlan, req.Plans)
	if err != nil {
		return nil, err
	}
	imageID, err := parseImageID(req.ImageID)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, persistence("hash password", err)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &repo.Patient{
		FullName:      req.Name,
		Email:         req.Email,
		PasswordHash:  hash,
		Active:        active,
		HasHealthPlan: req.HasPlan,
		HealthPlans:   plans,
		Phone:         req.Phone,
		History:       req.History,
		ImageID:       imageID,
	}
	if err := s.sealCPF(p, req.CPF); err != nil {
		return nil, persistence("encrypt cpf", err)
	}

	err = s.repo.Transaction(ctx, func(tx repo.PatientRepository) error {
		if req.Address != nil {
			a := &repo.Address{}
			applyAddress(a, *req.Address)
			if err := tx.CreateAddress(ctx, a); err != nil {
				return err
			}
			p.AddressID = &a.ID
			p.Address = a
		}
		if err := tx.CreatePatient(ctx, p); err != nil {
			return err
		}
		return s.audit(ctx, tx, repo.AuditPatientCreated, p.ID, nil)
	})
	if err != nil {
		return nil, finish("create patient", err)
	}
	v := ToPublic(p)
	return &v, nil
}

// Get returns one patient with address and image.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PublicView, error) {
	p, err := s.patient(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	v := ToPublic(p)
	return &v, nil
}

// List returns one page of patients and the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]PublicView, int64, error) {
	list, total, err := s.repo.ListPatients(ctx, limit, offset)
	if err != nil {
		return nil, 0, persistence("list patients", err)
	}
	return toPublicList(list), total, nil
}

// Search validates the raw name input and looks it up by exact match.
func (s *Service) Search(ctx context.Context, raw string) ([]PublicView, error) {
	term, err := ValidateSearchInput(raw)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.PatientsByName(ctx, term)
	if err != nil {
		return nil, persistence("search patients", err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return toPublicList(list), nil
}

// Update replaces every mutable field of the patient. Omitted fields become
// zero values; a blank senha keeps the current password.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*PublicView, error) {
	req = SanitizeUpdate(req)
	if err := Validate(req); err != nil {
		return nil, err
	}
	if !crypto.ValidCPF(req.CPF) {
		return nil, ErrInvalidCPF
	}
	plans, err := MapPlans(req.HasPlan, req.Plans)
	if err != nil {
		return nil, err
	}
	imageID, err := parseImageID(req.ImageID)
	if err != nil {
		return nil, err
	}
	cpfHash := crypto.CPFHash(req.CPF)

	var out *repo.Patient
	err = s.repo.Transaction(ctx, func(tx repo.PatientRepository) error {
		p, err := s.patient(ctx, tx, id)
		if err != nil {
			return err
		}
		if other, err := tx.PatientByCPFHash(ctx, cpfHash); err == nil && other.ID != p.ID {
			return ErrConflict
		} else if err != nil && !repo.IsNotFound(err) {
			return err
		}
		if req.Password != "" && !s.hasher.Matches(p.PasswordHash, req.Password) {
			hash, err := s.hasher.Hash(req.Password)
			if err != nil {
				return err
			}
			p.PasswordHash = hash
		}
		// Só recifra quando o CPF muda: o mesmo payload deixa o registro igual.
		if p.CPFHash != cpfHash {
			if err := s.sealCPF(p, req.CPF); err != nil {
				return err
			}
		}
		p.FullName = req.Name
		p.Email = req.Email
		p.Active = *req.Active
		p.HasHealthPlan = req.HasPlan
		p.HealthPlans = plans
		p.Phone = req.Phone
		p.History = req.History
		p.ImageID = imageID
		if err := tx.SavePatient(ctx, p); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, repo.AuditPatientUpdated, p.ID, map[string]interface{}{"fields": updatedFields(req)}); err != nil {
			return err
		}
		out, err = s.patient(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, finish("update patient", err)
	}
	v := ToPublic(out)
	return &v, nil
}

// UpdateAddress creates or overwrites the patient's address and saves the patient.
func (s *Service) UpdateAddress(ctx context.Context, id uuid.UUID, req AddressRequest) (*PublicView, error) {
	req = SanitizeAddress(req)
	if err := Validate(req); err != nil {
		return nil, err
	}
	var out *repo.Patient
	err := s.repo.Transaction(ctx, func(tx repo.PatientRepository) error {
		p, err := s.patient(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := reconcileAddress(ctx, tx, p, req); err != nil {
			return err
		}
		if err := tx.SavePatient(ctx, p); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, repo.AuditPatientAddress, p.ID, map[string]string{"address_id": p.AddressID.String()}); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, finish("update address", err)
	}
	v := ToPublic(out)
	return &v, nil
}

// Deactivate marks the patient inactive and soft deletes it. Absent patients are not touched.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(tx repo.PatientRepository) error {
		if _, err := s.patient(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeactivatePatient(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, repo.AuditPatientDeactivated, id, nil)
	})
	return finish("deactivate patient", err)
}

// updatedFields lists the JSON fields the client sent with a value; senha only when non-blank.
func updatedFields(req UpdatePatientRequest) []string {
	f := []string{"nome", "email", "cpf", "estaAtivo", "temPlano"}
	if req.Password != "" {
		f = append(f, "senha")
	}
	if len(req.Plans) > 0 {
		f = append(f, "planos")
	}
	if req.Phone != "" {
		f = append(f, "telefone")
	}
	if req.History != "" {
		f = append(f, "historico")
	}
	if req.ImageID != "" {
		f = append(f, "imagemId")
	}
	return f
}
