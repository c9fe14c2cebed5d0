package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
)

// newValidator usa el nombre json de cada campo en los mensajes de error.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON parsea el body y lo valida. Si falla, ya escribió la respuesta 400 y ok es false.
func bindJSON(c *fiber.Ctx, v *validator.Validate, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validateStruct(c, v, out)
}

func validateStruct(c *fiber.Ctx, v *validator.Validate, in any) (bool, error) {
	err := v.Struct(in)
	if err == nil {
		return true, nil
	}
	verrs, isValidation := err.(validator.ValidationErrors)
	if !isValidation {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	fields := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dto.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: fields,
	})
}

// fieldPath quita el nombre del struct raíz: "CreateInvoiceRequest.items[0].prefix" → "items[0].prefix".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "min":
		return "valor o longitud mínima " + fe.Param()
	case "max":
		return "valor o longitud máxima " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "ne":
		return "no puede ser " + fe.Param()
	}
	return "inválido (" + fe.Tag() + ")"
}
