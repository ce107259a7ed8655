package patient

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Erros reportam o nome do campo JSON (nome, senha, endereco.cep...).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return nameAllowed.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nosqlmeta", func(fl validator.FieldLevel) bool {
		return !sqlMeta.MatchString(fl.Field().String())
	})
	return v
}

// Validate runs the struct tags of a request and collects every violation.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe.Tag(), fe.Param()),
		})
	}
	return out
}

// fieldPath drops the root struct name: "CreatePatientRequest.endereco.cep" -> "endereco.cep".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "campo obrigatório"
	case "email":
		return "e-mail inválido"
	case "min":
		return fmt.Sprintf("mínimo de %s caracteres", param)
	case "max":
		return fmt.Sprintf("máximo de %s caracteres", param)
	case "len":
		return fmt.Sprintf("deve ter exatamente %s caracteres", param)
	case "numeric":
		return "apenas dígitos"
	case "alpha":
		return "apenas letras"
	case "uuid":
		return "identificador inválido"
	case "datetime":
		return "data deve estar no formato " + param
	case "personname":
		return "apenas letras, espaços, apóstrofo e hífen"
	case "nosqlmeta":
		return "contém termos ou símbolos não permitidos"
	default:
		return "valor inválido"
	}
}
