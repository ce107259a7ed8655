package patient

import (
	"time"

	"github.com/prontuario/patients/internal/repo"
)

type AddressView struct {
	CEP        string `json:"cep"`
	Street     string `json:"rua"`
	State      string `json:"estado"`
	Number     string `json:"numero"`
	Complement string `json:"complemento"`
}

type ImageView struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type PlanView struct {
	Provider   string `json:"operadora"`
	Product    string `json:"plano,omitempty"`
	CardNumber string `json:"numeroCarteira"`
	ValidUntil string `json:"validade,omitempty"`
}

// PublicView is the only shape a patient leaves the service in.
// It has no room for the password hash or the CPF.
type PublicView struct {
	ID        string       `json:"id"`
	Name      string       `json:"nome"`
	Email     string       `json:"email"`
	Active    bool         `json:"estaAtivo"`
	HasPlan   bool         `json:"temPlano"`
	Plans     []PlanView   `json:"planos"`
	Phone     string       `json:"telefone"`
	History   string       `json:"historico"`
	ImageID   *string      `json:"imagemId,omitempty"`
	Image     *ImageView   `json:"imagem,omitempty"`
	Address   *AddressView `json:"endereco,omitempty"`
	CreatedAt time.Time    `json:"criadoEm"`
	UpdatedAt time.Time    `json:"atualizadoEm"`
}

// ToPublic projects a stored patient to its public view.
func ToPublic(p *repo.Patient) PublicView {
	v := PublicView{
		ID:        p.ID.String(),
		Name:      p.FullName,
		Email:     p.Email,
		Active:    p.Active,
		HasPlan:   p.HasHealthPlan,
		Plans:     make([]PlanView, 0, len(p.HealthPlans)),
		Phone:     p.Phone,
		History:   p.History,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, e := range p.HealthPlans {
		pv := PlanView{Provider: e.Provider, Product: e.Product, CardNumber: e.CardNumber}
		if e.ValidUntil != nil {
			pv.ValidUntil = e.ValidUntil.Format(planDateLayout)
		}
		v.Plans = append(v.Plans, pv)
	}
	if p.ImageID != nil {
		s := p.ImageID.String()
		v.ImageID = &s
	}
	if p.Image != nil {
		v.Image = &ImageView{ID: p.Image.ID.String(), URL: p.Image.URL}
	}
	if p.Address != nil {
		v.Address = &AddressView{
			CEP:        p.Address.Zip,
			Street:     p.Address.Street,
			State:      p.Address.State,
			Number:     p.Address.Number,
			Complement: p.Address.Complement,
		}
	}
	return v
}

func toPublicList(list []repo.Patient) []PublicView {
	out := make([]PublicView, len(list))
	for i := range list {
		out[i] = ToPublic(&list[i])
	}
	return out
}
