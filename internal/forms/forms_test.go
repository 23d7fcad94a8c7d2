package forms

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validAddress() Address {
	return Address{
		FullName: "Asha Rao",
		Mobile:   "9876543210",
		Flat:     "12B, Lake View Apartments",
		Pincode:  "560001",
		City:     "Bengaluru",
		State:    "Karnataka",
	}
}

func TestAddressValidateAcceptsOptionalArea(t *testing.T) {
	if err := validAddress().Validate(); err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}
}

func TestAddressValidateRejectsShortMobile(t *testing.T) {
	input := validAddress()
	input.Mobile = "98765"
	before := input

	err := input.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	fields := FieldErrors(err)
	if fields["mobile"] == "" || len(fields) != 1 {
		t.Fatalf("expected only a mobile error, got %v", fields)
	}
	if diff := cmp.Diff(before, input); diff != "" {
		t.Fatalf("validation mutated input (-want +got):\n%s", diff)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Summary != RequiredFieldsMessage {
		t.Fatalf("expected summary %q, got %v", RequiredFieldsMessage, err)
	}
}

func TestAddressValidateListsEveryMissingField(t *testing.T) {
	fields := FieldErrors(Address{}.Validate())
	for _, name := range []string{"fullName", "mobile", "flat", "pincode", "city", "state"} {
		if fields[name] == "" {
			t.Fatalf("expected error for %s, got %v", name, fields)
		}
	}
	if _, ok := fields["area"]; ok {
		t.Fatalf("area is optional")
	}
}

func TestParseAddressKeepsTypedValues(t *testing.T) {
	values := url.Values{
		"fullName": {"  Asha Rao "},
		"mobile":   {"98765 43210"},
		"flat":     {"12B"},
		"area":     {" MG Road "},
		"pincode":  {"560-001"},
		"city":     {"Bengaluru"},
		"state":    {"Karnataka"},
	}
	typed := ParseAddress(values)
	wantTyped := Address{FullName: "  Asha Rao ", Mobile: "98765 43210", Flat: "12B", Area: " MG Road ", Pincode: "560-001", City: "Bengaluru", State: "Karnataka"}
	if diff := cmp.Diff(wantTyped, typed); diff != "" {
		t.Fatalf("unexpected parse (-want +got):\n%s", diff)
	}
	if err := typed.Validate(); err != nil {
		t.Fatalf("expected separators to pass validation, got %v", err)
	}

	got := typed.Normalized()
	want := Address{FullName: "Asha Rao", Mobile: "9876543210", Flat: "12B", Area: "MG Road", Pincode: "560001", City: "Bengaluru", State: "Karnataka"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected normalized form (-want +got):\n%s", diff)
	}
	if got.Line() != "12B, MG Road" {
		t.Fatalf("unexpected line %q", got.Line())
	}
}

func TestQuestionLengthCountsTrimmedCharacters(t *testing.T) {
	cases := []struct {
		text  string
		valid bool
	}{
		{"", false},
		{"   short?   ", false},
		{"123456789", false},
		{"1234567890", true},
		{"  Is it machine washable?  ", true},
		{"कपड़ा कैसा है?", true},
	}
	for _, tc := range cases {
		err := Question{Text: tc.text}.Validate()
		if tc.valid && err != nil {
			t.Fatalf("%q: expected valid, got %v", tc.text, err)
		}
		if !tc.valid && !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", tc.text, err)
		}
	}
}

func TestLoginRequiresTenDigits(t *testing.T) {
	login := ParseLogin(url.Values{"mobile": {"98765-43210"}})
	if err := login.Validate(); err != nil {
		t.Fatalf("expected valid login, got %v", err)
	}
	if login.Mobile != "98765-43210" || login.Normalized().Mobile != "9876543210" {
		t.Fatalf("unexpected login values %q / %q", login.Mobile, login.Normalized().Mobile)
	}
	if err := (Login{Mobile: "12345"}).Validate(); FieldErrors(err)["mobile"] == "" {
		t.Fatalf("expected mobile error, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail(""); err != nil {
		t.Fatalf("empty email should be allowed, got %v", err)
	}
	if err := ValidateEmail("asha@example.in"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	for _, bad := range []string{"asha", "@example.in", "asha@example", "asha rao@example.in"} {
		if err := ValidateEmail(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
