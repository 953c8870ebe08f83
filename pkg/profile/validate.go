package profile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	nameRe      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_ ]*$`)
	portRangeRe = regexp.MustCompile(`^(\d{1,5}(-\d{1,5})?)(,\s*\d{1,5}(-\d{1,5})?)*$`)

	validate = newValidator()
)

// User-facing validation messages.
const (
	msgNameEmpty     = "Name cannot be empty"
	msgNameTooLong   = "Name must be 64 characters or less"
	msgNameFormat    = "Name must start with alphanumeric and contain only alphanumeric, hyphens, underscores, and spaces"
	msgPortEmpty     = "Port range cannot be empty"
	msgPortFormat    = "Invalid port range format. Use: single port (80), range (1-1024), or comma-separated (21,22,80,443)"
	msgTimeoutRange  = "Timeout must be between 100 and 60000 milliseconds"
	msgChunkRange    = "Chunk size must be between 1 and 500"
	msgUnknownReason = "is invalid"
)

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(portRangeTagName, func(fl validator.FieldLevel) bool {
		return ValidPortRange(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(profileNameTagKey, func(fl validator.FieldLevel) bool {
		return nameRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks p and returns one message per failing field, in field
// order. An empty result means the profile is valid.
func Validate(p Profile) []string {
	err := validate.Struct(p)
	if err == nil {
		return []string{}
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	return msgs
}

func message(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		switch fe.Tag() {
		case "required":
			return msgNameEmpty
		case "max":
			return msgNameTooLong
		default:
			return msgNameFormat
		}
	case "PortRange":
		if fe.Tag() == "required" {
			return msgPortEmpty
		}
		return msgPortFormat
	case "Timeout":
		return msgTimeoutRange
	case "ChunkSize":
		return msgChunkRange
	default:
		return fe.Field() + " " + msgUnknownReason
	}
}

// ValidPortRange reports whether s is a comma separated list of ports or
// port ranges ("80", "1-1024", "21,22,80,443") with every port in 1..65535
// and every range ascending.
func ValidPortRange(s string) bool {
	if !portRangeRe.MatchString(s) {
		return false
	}

	for _, segment := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(segment), "-")
		bounds := make([]uint64, 0, len(parts))
		for _, part := range parts {
			port, err := strconv.ParseUint(part, 10, 32)
			if err != nil || port < 1 || port > 65535 {
				return false
			}
			bounds = append(bounds, port)
		}
		if len(bounds) == 2 && bounds[0] > bounds[1] {
			return false
		}
	}
	return true
}
