package adapter

import "context"

// Mail is one outbound transactional message.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers transactional email through a third-party API.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}
