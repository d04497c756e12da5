package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/williamokano/s3transfer/pkg/auth"
)

// DefaultTransport is used when the settings name none
const DefaultTransport = "smtp"

// DateFormat is the date layout used in notification subjects
const DateFormat = "2006/01/02"

// Notifier delivers a human-readable status message to an operator
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Nop discards every message
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }

// Settings describes where and how notifications are delivered
type Settings struct {
	Transport   string // smtp (default) or ses
	SMTPServer  string // host[:port] for the smtp transport
	From        string
	To          []string
	Cc          []string
	Region      string           // AWS region for the ses transport
	Credentials auth.Credentials // SES-style key pair, empty for unauthenticated relay or the default chain
}

// Constructor builds a notifier for one transport
type Constructor func(ctx context.Context, s Settings) (Notifier, error)

var transports = make(map[string]Constructor)

// RegisterTransport registers a notifier constructor under a transport name
func RegisterTransport(name string, constructor Constructor) {
	transports[name] = constructor
}

// Transports lists the registered transport names
func Transports() []string {
	names := make([]string, 0, len(transports))
	for name := range transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the notifier for s.Transport
func New(ctx context.Context, s Settings) (Notifier, error) {
	name := s.Transport
	if name == "" {
		name = DefaultTransport
	}

	constructor, ok := transports[name]
	if !ok {
		return nil, fmt.Errorf("unknown notification transport %q", name)
	}
	if s.From == "" || len(s.To) == 0 {
		return nil, fmt.Errorf("notification transport %q needs a from and at least one to address", name)
	}

	return constructor(ctx, s)
}

// SplitAddresses splits a comma separated address list, dropping blanks
func SplitAddresses(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Status tags a notification subject
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Subject renders "[STATUS][host] YYYY/MM/DD Transfer S3 - reason"
func Subject(status Status, host string, date time.Time, reason string) string {
	return fmt.Sprintf("[%s][%s] %s Transfer S3 - %s", status, host, date.Format(DateFormat), reason)
}

// FailureBody renders the body sent when a transfer fails
func FailureBody(err error) string {
	return fmt.Sprintf("Transfer S3 failed.\nReason: %v", err)
}

// SuccessBody renders the body sent after a successful upload
func SuccessBody(archivePath, bucket, key string) string {
	return fmt.Sprintf("Transfer S3 succeeded.\nUploaded: %s\nDestination: %s/%s", archivePath, bucket, key)
}

// PendingRemovalNote is appended to a success body when the source is
// removed after the message is sent
func PendingRemovalNote(sourcePath string) string {
	return fmt.Sprintf("\nSource %s will be removed; a removal failure is reported in the log and exit status.", sourcePath)
}
