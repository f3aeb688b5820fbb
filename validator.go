package signup

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

const (
	// DateLayout is the wire format for dates of birth
	DateLayout = "2006-01-02"

	MinPasswordLength = 12
	MinPhoneDigits    = 10
	MaxPhoneDigits    = 15
	MinAge            = 13
	MaxAge            = 120
)

var (
	usernameRx = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	nameRx     = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ' -]{1,50}$`)
	emailRx    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// FieldErrors maps a draft field to a human readable violation
type FieldErrors map[string]string

// ValidateUsername checks username and referrer username shape
func ValidateUsername(value string) error {
	return validation.Validate(value,
		validation.Required.Error("username is required"),
		validation.Match(usernameRx).Error("must be 3-20 characters: letters, digits, underscore or hyphen"),
	)
}

// ValidateName checks first and last names as they will be stored, trimmed
func ValidateName(value string) error {
	return validation.Validate(strings.TrimSpace(value),
		validation.Required.Error("name is required"),
		validation.Match(nameRx).Error("must be 1-50 letters, spaces, apostrophes or hyphens"),
	)
}

// ValidateEmail checks the address shape
func ValidateEmail(value string) error {
	return validation.Validate(value,
		validation.Required.Error("email is required"),
		validation.Match(emailRx).Error("must be a valid email address"),
		is.Email.Error("must be a valid email address"),
	)
}

// ValidatePhone accepts an empty value or 10 to 15 digits once normalized
func ValidatePhone(value string) error {
	return validation.Validate(value, validation.By(func(v any) error {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		digits := phonenumbers.NormalizeDigitsOnly(s)
		if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
			return errors.New("phone must contain 10-15 digits")
		}
		return nil
	}))
}

// NormalizePhone returns the digits only form, nil when absent
func NormalizePhone(value string) *string {
	digits := phonenumbers.NormalizeDigitsOnly(strings.TrimSpace(value))
	if digits == "" {
		return nil
	}
	return &digits
}

// ValidateDateOfBirth checks the date against the current time
func ValidateDateOfBirth(value string) error {
	return ValidateDateOfBirthAt(value, time.Now())
}

// ValidateDateOfBirthAt checks that value is a real date and the age at now
// lies within the accepted bounds
func ValidateDateOfBirthAt(value string, now time.Time) error {
	return validation.Validate(value,
		validation.Required.Error("date of birth is required"),
		validation.By(func(v any) error {
			s, _ := v.(string)
			dob, err := ParseDateOfBirth(s)
			if err != nil {
				return errors.New("must be a valid date (YYYY-MM-DD)")
			}
			age := AgeAt(dob, now)
			if age < MinAge || age > MaxAge {
				return errors.New("age must be between 13 and 120")
			}
			return nil
		}),
	)
}

// ParseDateOfBirth parses a YYYY-MM-DD date, rejecting impossible days
func ParseDateOfBirth(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// AgeAt returns the whole years elapsed between dob and now
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ValidatePassword enforces length and character class rules
func ValidatePassword(value string) error {
	return validation.Validate(value,
		validation.Required.Error("password is required"),
		validation.By(func(v any) error {
			s, _ := v.(string)
			if len([]rune(s)) < MinPasswordLength {
				return errors.New("password must be at least 12 characters")
			}

			var lower, upper, digit, symbol bool
			for _, r := range s {
				switch {
				case r >= 'a' && r <= 'z':
					lower = true
				case r >= 'A' && r <= 'Z':
					upper = true
				case r >= '0' && r <= '9':
					digit = true
				default:
					symbol = true
				}
			}
			if !lower || !upper || !digit || !symbol {
				return errors.New("password needs a lowercase letter, an uppercase letter, a digit and a symbol")
			}
			return nil
		}),
	)
}

// Draft is the signup submission
type Draft struct {
	Username         string `json:"username" form:"username"`
	ReferrerUsername string `json:"referrerUsername" form:"referrerUsername"`
	Email            string `json:"email" form:"email"`
	Password         string `json:"password" form:"password"`
	FirstName        string `json:"firstName" form:"firstName"`
	LastName         string `json:"lastName" form:"lastName"`
	Phone            string `json:"phone,omitempty" form:"phone"`
	DateOfBirth      string `json:"dob" form:"dob"`
	Role             string `json:"role,omitempty" form:"role"`
}

// Validate runs every field rule at now and returns the violations, nil when
// the draft is valid
func (d Draft) Validate(now time.Time) FieldErrors {
	errs := validation.Errors{
		"username":         ValidateUsername(d.Username),
		"email":            ValidateEmail(d.Email),
		"referrerUsername": validateOptionalUsername(d.ReferrerUsername),
		"password":         ValidatePassword(d.Password),
		"firstName":        ValidateName(d.FirstName),
		"lastName":         ValidateName(d.LastName),
		"phone":            ValidatePhone(d.Phone),
		"dob":              ValidateDateOfBirthAt(d.DateOfBirth, now),
	}

	if _, ok := ParseRole(d.Role); !ok {
		errs["role"] = errors.New("unknown role")
	}

	return toFieldErrors(errs.Filter())
}

func validateOptionalUsername(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return ValidateUsername(value)
}

func toFieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for field, ferr := range verrs {
		out[field] = ferr.Error()
	}
	return out
}
