package syslog

import (
	"fmt"
	"strings"
	"time"

	"github.com/leodido/go-syslog/v4/rfc5424"

	"github.com/V4T54L/hubformat/internal/domain"
)

const (
	version = 1

	// RFC5424 allows at most microsecond precision; records carry milliseconds.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// paramEscaper escapes the characters PARAM-VALUE reserves.
var paramEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

// Format renders r as a single RFC5424 line without trailing newline.
// The procid is always nil and empty msgid or hostname render as "-".
// A header field or parameter the RFC5424 grammar rejects is an error.
func Format(r *domain.Record) (string, error) {
	msg := &rfc5424.SyslogMessage{}
	msg.SetPriority(domain.Priority(r.Facility, r.Severity))
	msg.SetVersion(version)

	msg.SetTimestamp(time.UnixMilli(r.Timestamp).UTC().Format(timestampLayout))
	if msg.Timestamp == nil {
		return "", fmt.Errorf("timestamp %d is not representable in rfc5424", r.Timestamp)
	}

	msg.SetHostname(r.Hostname)
	if err := checkHeader("hostname", r.Hostname, msg.Hostname); err != nil {
		return "", err
	}
	msg.SetAppname(r.AppName)
	if err := checkHeader("app name", r.AppName, msg.Appname); err != nil {
		return "", err
	}
	msg.SetMsgID(r.MsgID)
	if err := checkHeader("msgid", r.MsgID, msg.MsgID); err != nil {
		return "", err
	}

	for _, e := range r.SDElements {
		msg.SetElementID(e.ID)
		if msg.StructuredData == nil {
			return "", fmt.Errorf("invalid structured data element id %q", e.ID)
		}
		if _, ok := (*msg.StructuredData)[e.ID]; !ok {
			return "", fmt.Errorf("invalid structured data element id %q", e.ID)
		}
		for _, p := range e.Params {
			msg.SetParameter(e.ID, p.Name, paramEscaper.Replace(p.Value))
			stored, ok := (*msg.StructuredData)[e.ID][p.Name]
			if !ok || (stored == "" && p.Value != "") {
				return "", fmt.Errorf("invalid structured data parameter %s %q", e.ID, p.Name)
			}
		}
	}
	msg.SetMessage(r.Message)

	line, err := msg.String()
	if err != nil {
		return "", fmt.Errorf("failed to render record as rfc5424: %w", err)
	}
	return line, nil
}

// checkHeader reports a non-empty value the builder refused to store.
func checkHeader(field, want string, got *string) error {
	if want == "" {
		return nil
	}
	if got == nil || *got != want {
		return fmt.Errorf("%s %q is not a valid rfc5424 header field", field, want)
	}
	return nil
}
