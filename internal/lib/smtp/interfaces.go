// Package smtp provides the SMTP transport used by the reminder sender.
package smtp

import "io"

// Client is the subset of *smtp.Client used for sending a message.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface abstracts the SMTP transport so the sender service can
// be tested without a live server.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
