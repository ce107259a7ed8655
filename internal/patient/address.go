package patient

import (
	"context"

	"github.com/prontuario/patients/internal/repo"
)

func applyAddress(a *repo.Address, req AddressRequest) {
	a.Zip = req.CEP
	a.Street = req.Street
	a.State = req.State
	a.Number = req.Number
	a.Complement = req.Complement
}

// reconcileAddress cria o endereço quando o paciente ainda não tem um;
// caso contrário sobrescreve os cinco campos do endereço existente.
// p.AddressID/p.Address refletem o resultado; quem chama salva o paciente.
func reconcileAddress(ctx context.Context, tx repo.PatientRepository, p *repo.Patient, req AddressRequest) error {
	if p.AddressID == nil || p.Address == nil {
		a := &repo.Address{}
		applyAddress(a, req)
		if err := tx.CreateAddress(ctx, a); err != nil {
			return err
		}
		p.AddressID = &a.ID
		p.Address = a
		return nil
	}
	applyAddress(p.Address, req)
	return tx.UpdateAddress(ctx, p.Address)
}
