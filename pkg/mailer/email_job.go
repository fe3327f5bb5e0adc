package mailer

// Template names understood by the email worker. Each maps to a trio of
// <name>.subject.tmpl / <name>.text.tmpl / <name>.html.tmpl files.
const (
	TemplateWelcome     = "welcome"
	TemplateProductSold = "product_sold"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either set Subject/Text/HTML directly, or set Template and let the worker
// render the bodies from Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
