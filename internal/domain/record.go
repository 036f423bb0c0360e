package domain

import (
	"fmt"
)

// EnterpriseNumber is the private enterprise number used in every
// structured-data element id this adapter produces.
const EnterpriseNumber = "48577"

// Facility is a syslog facility code.
type Facility uint8

const (
	FacilityKernel Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLPR
	FacilityNews
	FacilityUUCP
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
	FacilityNTP
	FacilityAudit
	FacilityAlert
	FacilityClock
	FacilityLocal0
	FacilityLocal1
	FacilityLocal2
	FacilityLocal3
	FacilityLocal4
	FacilityLocal5
	FacilityLocal6
	FacilityLocal7
)

var facilityNames = []string{
	"KERNEL", "USER", "MAIL", "DAEMON", "AUTH", "SYSLOG", "LPR", "NEWS",
	"UUCP", "CRON", "AUTHPRIV", "FTP", "NTP", "AUDIT", "ALERT", "CLOCK",
	"LOCAL0", "LOCAL1", "LOCAL2", "LOCAL3", "LOCAL4", "LOCAL5", "LOCAL6", "LOCAL7",
}

func (f Facility) String() string {
	if int(f) < len(facilityNames) {
		return facilityNames[f]
	}
	return fmt.Sprintf("FACILITY(%d)", uint8(f))
}

func (f Facility) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Facility) UnmarshalText(text []byte) error {
	i, err := indexOf(facilityNames, string(text))
	if err != nil {
		return fmt.Errorf("unknown facility: %w", err)
	}
	*f = Facility(i)
	return nil
}

// Severity is a syslog severity code.
type Severity uint8

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInformational
	SeverityDebug
)

var severityNames = []string{
	"EMERGENCY", "ALERT", "CRITICAL", "ERROR", "WARNING", "NOTICE", "INFORMATIONAL", "DEBUG",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("SEVERITY(%d)", uint8(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(text []byte) error {
	i, err := indexOf(severityNames, string(text))
	if err != nil {
		return fmt.Errorf("unknown severity: %w", err)
	}
	*s = Severity(i)
	return nil
}

func indexOf(names []string, name string) (int, error) {
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q", name)
}

// Priority returns the RFC5424 PRI value for the pair.
func Priority(f Facility, s Severity) uint8 {
	return uint8(f)*8 + uint8(s)
}

// SDParam is a single structured-data parameter.
type SDParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SDElement is an RFC5424 SD-ELEMENT. Params keep their insertion order
// for rendering; Equal ignores it.
type SDElement struct {
	ID     string    `json:"id"`
	Params []SDParam `json:"params"`
}

// NewSDElement builds an element named name@EnterpriseNumber.
func NewSDElement(name string, params ...SDParam) SDElement {
	return SDElement{ID: name + "@" + EnterpriseNumber, Params: params}
}

// Param returns the value of the named parameter.
func (e SDElement) Param(name string) (string, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Equal reports whether both elements carry the same id and parameter set.
func (e SDElement) Equal(other SDElement) bool {
	if e.ID != other.ID || len(e.Params) != len(other.Params) {
		return false
	}
	for _, p := range e.Params {
		v, ok := other.Param(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// Record is the structured log record derived from one event.
type Record struct {
	AppName    string      `json:"app_name"`
	Facility   Facility    `json:"facility"`
	Hostname   string      `json:"hostname"`
	Message    string      `json:"msg"`
	MsgID      string      `json:"msg_id"`
	Severity   Severity    `json:"severity"`
	Timestamp  int64       `json:"timestamp"` // epoch milliseconds
	SDElements []SDElement `json:"sd_elements"`
}

// Element returns the structured-data element with the given full id.
func (r *Record) Element(id string) (SDElement, bool) {
	for _, e := range r.SDElements {
		if e.ID == id {
			return e, true
		}
	}
	return SDElement{}, false
}
