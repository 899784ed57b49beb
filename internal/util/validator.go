package util

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator devolve a instância compartilhada, reportando campos pelo nome JSON.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct aplica as tags `validate` e devolve mensagens por campo.
func ValidateStruct(v any) map[string]string {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "obrigatório"
	case "email":
		return "email inválido"
	case "min":
		return "deve ter pelo menos " + fe.Param() + " caracteres"
	case "max":
		return "deve ter no máximo " + fe.Param() + " caracteres"
	case "oneof":
		return "deve ser um de: " + fe.Param()
	default:
		return "inválido"
	}
}

// ValidateEmail aplica a mesma regra `email` usada nas tags de cadastro.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if err := Validator().Var(email, "required,email,max=254"); err != nil {
		return errors.New("email inválido")
	}
	return nil
}
