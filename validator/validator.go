package validator

import (
	"errors"
	"fmt"
	"reflect"
)

// Validator checks a value and reports why it is unacceptable
type Validator interface {
	// Validate validates data
	Validate(data interface{}) error
}

// RangeValidator checks that a numeric struct field lies in [Min, Max]
type RangeValidator struct {
	Field string
	Min   float64
	Max   float64
}

// Validate checks the named field of a struct (or pointer to struct)
func (rv *RangeValidator) Validate(data interface{}) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("data must be a struct, got %s", v.Kind())
	}

	field := v.FieldByName(rv.Field)
	if !field.IsValid() {
		return fmt.Errorf("field %s does not exist", rv.Field)
	}

	var value float64
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		value = field.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value = float64(field.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value = float64(field.Uint())
	default:
		return fmt.Errorf("field %s is not numeric", rv.Field)
	}

	if value < rv.Min || value > rv.Max {
		return fmt.Errorf("field %s value %v is outside [%v, %v]", rv.Field, value, rv.Min, rv.Max)
	}

	return nil
}

// Clamp pulls value into [Min, Max]
func (rv *RangeValidator) Clamp(value float64) float64 {
	if value < rv.Min {
		return rv.Min
	}
	if value > rv.Max {
		return rv.Max
	}
	return value
}

// ValidateAll runs every validator against data and joins the failures
func ValidateAll(data interface{}, validators ...Validator) error {
	var errs []error
	for _, v := range validators {
		if err := v.Validate(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
