package validation

import "regexp"

// Form kinds accepted by the public API.
const (
	FormContact    = "contact"
	FormB2B        = "b2b_inquiry"
	FormNewsletter = "newsletter"
	FormCheckout   = "checkout"
)

// InstitutionTypes lists the accepted values of the B2B institutionType field.
var InstitutionTypes = []string{"school", "university", "training_center", "other"}

var phonePattern = regexp.MustCompile(`^[+]?[\d\s()-]{8,20}$`)

func emailField() Field {
	return Field{
		Name:            "email",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Email is required",
		Rules: []Rule{
			Email("Please provide a valid email address"),
			MaxLength(254, "Email must not exceed 254 characters"),
		},
	}
}

func nameField() Field {
	return Field{
		Name:            "name",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Name is required",
		Rules: []Rule{
			MinLength(2, "Name must be at least 2 characters long"),
			MaxLength(100, "Name must not exceed 100 characters"),
		},
	}
}

// ContactSchema validates the public contact form.
var ContactSchema = MustSchema(FormContact,
	nameField(),
	emailField(),
	Field{
		Name:            "subject",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Subject is required",
		Rules: []Rule{
			MinLength(1, "Subject is required"),
			MaxLength(200, "Subject must not exceed 200 characters"),
		},
	},
	Field{
		Name:            "message",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Message is required",
		Rules: []Rule{
			MinLength(10, "Message must be at least 10 characters long"),
			MaxLength(5000, "Message must not exceed 5000 characters"),
		},
	},
)

// B2BInquirySchema validates institution inquiries.
var B2BInquirySchema = MustSchema(FormB2B,
	nameField(),
	emailField(),
	Field{
		Name:            "company",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Institution name is required",
		Rules: []Rule{
			MinLength(2, "Institution name must be at least 2 characters long"),
			MaxLength(200, "Institution name must not exceed 200 characters"),
		},
	},
	Field{
		Name:            "phone",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Phone number is required",
		Rules: []Rule{
			Pattern(phonePattern, "Please provide a valid phone number (at least 8 digits)"),
		},
	},
	Field{
		Name:  "institutionType",
		Type:  TypeString,
		Rules: []Rule{OneOf(InstitutionTypes, "")},
	},
	Field{
		Name:        "estimatedStudents",
		Type:        TypeNumber,
		TypeMessage: "Please provide a valid number of students",
		Rules: []Rule{
			Integer(""),
			Min(1, "Number of students must be at least 1"),
		},
	},
	Field{
		Name: "requirements",
		Type: TypeString,
		Rules: []Rule{
			MaxLength(2000, "Requirements must not exceed 2000 characters"),
		},
	},
)

// NewsletterSchema validates newsletter sign-ups.
var NewsletterSchema = MustSchema(FormNewsletter, emailField())

// CheckoutSchema validates the customer block of a simulated checkout.
var CheckoutSchema = MustSchema(FormCheckout,
	Field{
		Name:            "planId",
		Type:            TypeString,
		Required:        true,
		RequiredMessage: "Plan is required",
		Rules:           []Rule{MaxLength(64, "Plan id must not exceed 64 characters")},
	},
	nameField(),
	emailField(),
)

// SchemaFor returns the schema registered for a form kind.
func SchemaFor(form string) (*Schema, bool) {
	switch form {
	case FormContact:
		return ContactSchema, true
	case FormB2B:
		return B2BInquirySchema, true
	case FormNewsletter:
		return NewsletterSchema, true
	case FormCheckout:
		return CheckoutSchema, true
	}
	return nil, false
}
