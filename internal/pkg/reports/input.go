package reports

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/Reakage/app/models"
)

var validate = validator.New()

// PhotoUpload is the raw photo attached to a submission.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// SubmitInput is what the submit-report screen collects.
type SubmitInput struct {
	Description string `validate:"required,max=5000"`
	Location    string `validate:"required,max=500"`
	Severity    string `validate:"omitempty,oneof=Low Medium High"`
	Photo       *PhotoUpload
}

// normalize trims the text fields and applies the default severity.
func (in SubmitInput) normalize() SubmitInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Severity = strings.TrimSpace(in.Severity)
	if in.Severity == "" {
		in.Severity = models.SeverityLow
	}
	if in.Photo != nil && len(in.Photo.Data) == 0 {
		in.Photo = nil
	}
	return in
}

// Validate checks the input without touching any backend.
func (in SubmitInput) Validate() error {
	if in.Description == "" || in.Location == "" {
		return ErrBlankFields
	}
	if !models.IsValidSeverity(in.Severity) {
		return ErrInvalidSeverity
	}
	if err := validate.Struct(in); err != nil {
		return validationMessage(err)
	}
	return nil
}

// validationMessage turns validator output into a sentence for the form.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch fe := verrs[0]; fe.Tag() {
	case "max":
		return errors.New(fe.Field() + " is too long.")
	case "required":
		return errors.New(fe.Field() + " cannot be empty.")
	default:
		return errors.New("Invalid value for " + fe.Field() + ".")
	}
}
