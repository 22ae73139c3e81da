package validation

// ContactForm is the public contact form.
type ContactForm struct {
	Name        string `json:"name" validate:"trimmedmin=2"`
	Email       string `json:"email" validate:"simpleemail"`
	Phone       string `json:"phone" validate:"omitempty,uaephone"`
	Company     string `json:"company"`
	Subject     string `json:"subject"`
	Message     string `json:"message" validate:"trimmedmin=10"`
	InquiryType string `json:"inquiryType"`
}

// Contact form defaults.
const (
	DefaultSubject     = "General Inquiry"
	DefaultInquiryType = "general"
)

var contactMessages = map[string]string{
	"name":    "Name is required and must be at least 2 characters long.",
	"email":   "A valid email address is required.",
	"phone":   "Please provide a valid UAE phone number (e.g., +971 50 123 4567).",
	"message": "Message is required and must be at least 10 characters long.",
}

// Validate returns every rule the form breaks, in field order.
func (f ContactForm) Validate() []string {
	return Messages(Struct(f), contactMessages)
}

// Sanitized returns a copy with every field cleaned and defaults applied.
func (f ContactForm) Sanitized() ContactForm {
	out := ContactForm{
		Name:        Sanitize(f.Name),
		Email:       Sanitize(f.Email),
		Phone:       Sanitize(f.Phone),
		Company:     Sanitize(f.Company),
		Subject:     Sanitize(f.Subject),
		Message:     Sanitize(f.Message),
		InquiryType: Sanitize(f.InquiryType),
	}
	if out.Subject == "" {
		out.Subject = DefaultSubject
	}
	if out.InquiryType == "" {
		out.InquiryType = DefaultInquiryType
	}
	return out
}

// NewsletterForm is a newsletter signup.
type NewsletterForm struct {
	Email string `json:"email" validate:"simpleemail"`
	Name  string `json:"name"`
}

var newsletterMessages = map[string]string{
	"email": "A valid email address is required.",
}

// Validate returns the broken rules.
func (f NewsletterForm) Validate() []string {
	return Messages(Struct(f), newsletterMessages)
}
