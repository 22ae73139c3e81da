package email

import (
	"fmt"
	"html"
	"strings"
)

// ContactDetails is a sanitized contact form submission.
type ContactDetails struct {
	Name        string
	Email       string
	Phone       string
	Company     string
	Subject     string
	Message     string
	InquiryType string
}

// ContactNotification builds the staff notification for a contact inquiry.
// Replies go straight to the customer.
func ContactNotification(to string, d ContactDetails) Message {
	rows := [][2]string{
		{"Name", d.Name},
		{"Email", d.Email},
		{"Phone", orDash(d.Phone)},
		{"Company", orDash(d.Company)},
		{"Inquiry type", d.InquiryType},
	}

	var text, htmlBody strings.Builder
	htmlBody.WriteString("<h2>New contact inquiry</h2><table>")
	for _, r := range rows {
		fmt.Fprintf(&text, "%s: %s\n", r[0], r[1])
		fmt.Fprintf(&htmlBody, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", r[0], html.EscapeString(r[1]))
	}
	htmlBody.WriteString("</table><h3>Message</h3><p>")
	htmlBody.WriteString(strings.ReplaceAll(html.EscapeString(d.Message), "\n", "<br>"))
	htmlBody.WriteString("</p>")
	fmt.Fprintf(&text, "\n%s\n", d.Message)

	return Message{
		To:      to,
		ReplyTo: d.Email,
		Subject: fmt.Sprintf("[Nexus TechHub] %s - %s", d.Subject, d.InquiryType),
		Text:    text.String(),
		HTML:    htmlBody.String(),
	}
}

// NewsletterWelcome builds the welcome mail for a new subscriber.
func NewsletterWelcome(to, name string) Message {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Welcome to the Nexus TechHub newsletter",
		Text:    greeting + ",\n\nThanks for subscribing. You'll hear about new parts, repair guides and offers first.\n\nNexus TechHub",
		HTML:    "<p>" + html.EscapeString(greeting) + ",</p><p>Thanks for subscribing. You'll hear about new parts, repair guides and offers first.</p><p>Nexus TechHub</p>",
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
