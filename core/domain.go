package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownNetwork = errors.New("core: unknown external network")
	ErrUnknownAction  = errors.New("core: unknown contact action")
)

type Network string

const (
	NetworkWeChat   Network = "WECHAT"
	NetworkWhatsApp Network = "WHATSAPP"
)

// Networks lists the supported external networks in a stable order.
func Networks() []Network {
	return []Network{NetworkWeChat, NetworkWhatsApp}
}

func ParseNetwork(value string) (Network, error) {
	network := Network(strings.ToUpper(strings.TrimSpace(value)))
	if !network.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, value)
	}
	return network, nil
}

func (n Network) Valid() bool {
	switch n {
	case NetworkWeChat, NetworkWhatsApp:
		return true
	default:
		return false
	}
}

func (n Network) String() string {
	return string(n)
}

type Action string

const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func ParseAction(value string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(value)))
	switch action {
	case ActionAdd, ActionUpdate, ActionDelete:
		return action, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}
}

type Contact struct {
	FirstName string
	LastName  string
	Company   string
	Email     string
	Phone     string
}

// Token is a signed bearer credential minted for one network.
type Token struct {
	Value     string
	Network   Network
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (t Token) IsZero() bool {
	return strings.TrimSpace(t.Value) == ""
}

type OutcomeStatus string

const (
	OutcomeOK    OutcomeStatus = "OK"
	OutcomeError OutcomeStatus = "ERROR"
)

// Outcome is the normalized result of one API operation. Result holds the
// decoded API payload when Status is OK and the diagnostic string produced by
// result parsing when Status is ERROR.
type Outcome struct {
	Status     OutcomeStatus
	Result     any
	StatusCode int
}

func (o Outcome) OK() bool {
	return o.Status == OutcomeOK
}

func (o Outcome) Message() string {
	return FormatValue(o.Result)
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s - %s", o.Status, o.Message())
}

// ContactRecord is one raw input row. Field order matches the CSV columns.
type ContactRecord struct {
	Line             int
	ExternalNetwork  string
	ContactAction    string
	ContactFirstName string
	ContactLastName  string
	ContactCompany   string
	ContactEmail     string
	ContactPhone     string
	AdvisorEmailList string
}

// Fields returns the record values in column order.
func (r ContactRecord) Fields() []string {
	return []string{
		r.ExternalNetwork,
		r.ContactAction,
		r.ContactFirstName,
		r.ContactLastName,
		r.ContactCompany,
		r.ContactEmail,
		r.ContactPhone,
		r.AdvisorEmailList,
	}
}

// ReportRow pairs an input record with its accumulated status text.
type ReportRow struct {
	Record ContactRecord
	Status string
}

type RowState string

const (
	RowStateOK      RowState = "ok"
	RowStateError   RowState = "error"
	RowStateSkipped RowState = "skipped"
	RowStateFailed  RowState = "failed"
)

type Run struct {
	ID         string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Summary    RunSummary
}

type RunSummary struct {
	Total   int
	OK      int
	Errors  int
	Skipped int
	Failed  int
}

func (s *RunSummary) Add(state RowState) {
	s.Total++
	switch state {
	case RowStateOK:
		s.OK++
	case RowStateError:
		s.Errors++
	case RowStateSkipped:
		s.Skipped++
	case RowStateFailed:
		s.Failed++
	}
}

type RunRow struct {
	ID        string
	RunID     string
	Number    int
	Record    ContactRecord
	State     RowState
	Status    string
	Error     string
	CreatedAt time.Time
}
