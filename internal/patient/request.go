package patient

// AddressRequest is the client shape of the address sub-resource.
// Every field is optional: an update overwrites all five, blanks included.
type AddressRequest struct {
	CEP        string `json:"cep" validate:"omitempty,len=8,numeric"`
	Street     string `json:"rua" validate:"max=200"`
	State      string `json:"estado" validate:"omitempty,len=2,alpha"`
	Number     string `json:"numero" validate:"max=20"`
	Complement string `json:"complemento" validate:"max=200"`
}

// PlanRequest is one health plan as the client sends it.
type PlanRequest struct {
	Provider   string `json:"operadora" validate:"required,max=100"`
	Product    string `json:"plano" validate:"max=100"`
	CardNumber string `json:"numeroCarteira" validate:"required,numeric,max=30"`
	ValidUntil string `json:"validade" validate:"omitempty,datetime=2006-01-02"`
}

type CreatePatientRequest struct {
	CPF      string          `json:"cpf" validate:"required"`
	Name     string          `json:"nome" validate:"required,min=2,max=120"`
	Email    string          `json:"email" validate:"required,email,max=254"`
	Password string          `json:"senha" validate:"required,min=8,max=72"`
	Active   *bool           `json:"estaAtivo"`
	HasPlan  bool            `json:"temPlano"`
	Plans    []PlanRequest   `json:"planos" validate:"omitempty,max=10,dive"`
	Phone    string          `json:"telefone" validate:"omitempty,min=10,max=13,numeric"`
	History  string          `json:"historico" validate:"max=5000"`
	ImageID  string          `json:"imagemId" validate:"omitempty,uuid"`
	Address  *AddressRequest `json:"endereco"`
}

// UpdatePatientRequest replaces every mutable field. estaAtivo must be sent
// explicitly; senha may be blank to keep the current password.
type UpdatePatientRequest struct {
	CPF      string        `json:"cpf" validate:"required"`
	Name     string        `json:"nome" validate:"required,min=2,max=120"`
	Email    string        `json:"email" validate:"required,email,max=254"`
	Password string        `json:"senha" validate:"omitempty,min=8,max=72"`
	Active   *bool         `json:"estaAtivo" validate:"required"`
	HasPlan  bool          `json:"temPlano"`
	Plans    []PlanRequest `json:"planos" validate:"omitempty,max=10,dive"`
	Phone    string        `json:"telefone" validate:"omitempty,min=10,max=13,numeric"`
	History  string        `json:"historico" validate:"max=5000"`
	ImageID  string        `json:"imagemId" validate:"omitempty,uuid"`
}
