package protocol

import (
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"presence-lab/domain"
)

const maxCoordinate = 1000.0

var colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	// Report json field names so rejections match the wire contract.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("hexrgb", validColor))
	must(v.RegisterValidation("bounded3", validVec3))
	must(v.RegisterValidation("unitquat", validQuat))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validColor accepts exactly "#" followed by six hex digits.
func validColor(fl validator.FieldLevel) bool {
	return colorRegex.MatchString(fl.Field().String())
}

// validVec3 accepts vectors whose components are all finite and within
// ±maxCoordinate.
func validVec3(fl validator.FieldLevel) bool {
	vec, ok := fl.Field().Interface().(domain.Vec3)
	if !ok {
		return false
	}
	for _, c := range vec {
		if math.IsNaN(c) || math.IsInf(c, 0) || math.Abs(c) > maxCoordinate {
			return false
		}
	}
	return true
}

// validQuat accepts quaternions with four finite components and a
// magnitude within [0.9, 1.1].
func validQuat(fl validator.FieldLevel) bool {
	q, ok := fl.Field().Interface().(domain.Quat)
	if !ok {
		return false
	}
	sum := 0.0
	for _, c := range q {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
		sum += c * c
	}
	mag := math.Sqrt(sum)
	return mag >= 0.9 && mag <= 1.1
}

// ValidateState applies the PlayerState constraints outside of a frame,
// for callers that construct states directly.
func ValidateState(state domain.PlayerState) *ProtocolError {
	return toProtocolError(validate.Struct(state))
}

// validateMessage runs the field constraints of a decoded variant.
func validateMessage(msg ClientMessage) *ProtocolError {
	return toProtocolError(validate.Struct(msg))
}

// toProtocolError maps validator output onto the protocol taxonomy: a
// missing required field counts as a malformed frame, everything else is
// a constraint violation naming the offending fields.
func toProtocolError(err error) *ProtocolError {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return malformed(err)
	}

	var fields []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return malformed(err)
		}
		fields = append(fields, fe.Field())
	}
	return &ProtocolError{Kind: KindValidationError, Fields: fields, cause: err}
}
