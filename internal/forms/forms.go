// Package forms parses and validates the storefront's modal and page forms.
package forms

import (
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("forms: validation failed")

// ValidationError carries one message per offending field plus a summary for toasts.
type ValidationError struct {
	Summary string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return e.Summary
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Summary + " (" + strings.Join(keys, ", ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Field returns the message for name, or "".
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// FieldErrors extracts the field map from err, or nil when err is not a validation failure.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

func newValidationError(summary string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Summary: summary, Fields: fields}
}

var (
	mobilePattern  = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// RequiredFieldsMessage is the toast shown when the address form is incomplete.
const RequiredFieldsMessage = "Please fill out all required fields."

// Address is the "Add New Address" form.
type Address struct {
	FullName string
	Mobile   string
	Flat     string
	Area     string
	Pincode  string
	City     string
	State    string
}

// ParseAddress reads the address fields as typed, so a rejected form re-renders unchanged.
func ParseAddress(values url.Values) Address {
	return Address{
		FullName: values.Get("fullName"),
		Mobile:   values.Get("mobile"),
		Flat:     values.Get("flat"),
		Area:     values.Get("area"),
		Pincode:  values.Get("pincode"),
		City:     values.Get("city"),
		State:    values.Get("state"),
	}
}

// Normalized trims every field and drops spaces and dashes from mobile and pincode.
func (a Address) Normalized() Address {
	return Address{
		FullName: strings.TrimSpace(a.FullName),
		Mobile:   normalizeDigits(a.Mobile),
		Flat:     strings.TrimSpace(a.Flat),
		Area:     strings.TrimSpace(a.Area),
		Pincode:  normalizeDigits(a.Pincode),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
	}
}

// Validate checks the normalized form: every field except Area, a 10 digit mobile and a
// 6 digit pincode.
func (a Address) Validate() error {
	a = a.Normalized()
	fields := map[string]string{}
	if a.FullName == "" {
		fields["fullName"] = "Full name is required."
	}
	switch {
	case a.Mobile == "":
		fields["mobile"] = "Mobile number is required."
	case !mobilePattern.MatchString(a.Mobile):
		fields["mobile"] = "Enter a 10 digit mobile number."
	}
	if a.Flat == "" {
		fields["flat"] = "Flat, house no., building or street is required."
	}
	switch {
	case a.Pincode == "":
		fields["pincode"] = "Pincode is required."
	case !pincodePattern.MatchString(a.Pincode):
		fields["pincode"] = "Enter a 6 digit pincode."
	}
	if a.City == "" {
		fields["city"] = "Town/City is required."
	}
	if a.State == "" {
		fields["state"] = "State is required."
	}
	return newValidationError(RequiredFieldsMessage, fields)
}

// Line joins the street portion for display.
func (a Address) Line() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Flat, a.Area} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// MinQuestionLength is counted in characters after trimming.
const MinQuestionLength = 10

// QuestionTooShortMessage is shown when the question is under MinQuestionLength.
const QuestionTooShortMessage = "Please enter a question (minimum 10 characters)."

// Question is the "Ask a Question" form.
type Question struct {
	Text string
}

// ParseQuestion keeps the text as typed; validation trims.
func ParseQuestion(values url.Values) Question {
	return Question{Text: values.Get("question")}
}

// Validate requires at least MinQuestionLength characters after trimming.
func (q Question) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(q.Text)) < MinQuestionLength {
		return newValidationError(QuestionTooShortMessage, map[string]string{"question": QuestionTooShortMessage})
	}
	return nil
}

// Trimmed returns the text that is actually submitted.
func (q Question) Trimmed() string {
	return strings.TrimSpace(q.Text)
}

// Login is the mobile number sign-in form.
type Login struct {
	Mobile string
}

// ParseLogin reads the mobile field as typed.
func ParseLogin(values url.Values) Login {
	return Login{Mobile: values.Get("mobile")}
}

func (l Login) Normalized() Login {
	return Login{Mobile: normalizeDigits(l.Mobile)}
}

// Validate requires a 10 digit mobile number once spaces and dashes are dropped.
func (l Login) Validate() error {
	if !mobilePattern.MatchString(l.Normalized().Mobile) {
		return newValidationError("Please enter a valid mobile number.", map[string]string{"mobile": "Enter a 10 digit mobile number."})
	}
	return nil
}

// ValidateEmail checks the optional checkout contact address: an @ with a dot somewhere after it.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") || strings.ContainsAny(email, " \t") {
		return newValidationError("Please enter a valid email address.", map[string]string{"email": "Enter a valid email address."})
	}
	return nil
}

func normalizeDigits(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.NewReplacer(" ", "", "-", "").Replace(raw)
}
