package batch

import (
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
)

const AdvisorSeparator = "~"

const (
	StatusInvalidNetwork  = "ERROR - Invalid External Network - SKIPPED"
	StatusInvalidAction   = "ERROR - Invalid Contact Action - SKIPPED"
	StatusMissingEmail    = "ERROR - Contact Email field is not populated - SKIPPED"
	StatusMissingAdvisors = "ERROR - Advisor Email List field is not populated - SKIPPED"
)

// FailureStatus is the row status written when an API call for action could
// not complete.
func FailureStatus(action core.Action) string {
	switch action {
	case core.ActionAdd:
		return "ERROR ADDING CONTACT - Check logs for details"
	case core.ActionUpdate:
		return "ERROR UPDATING CONTACT - Check logs for details"
	case core.ActionDelete:
		return "ERROR DELETING CONTACT - Check logs for details"
	default:
		return "ERROR - Check logs for details"
	}
}

// NormalizeRecord upper-cases network and action, trims names and company and
// lower-cases the contact and advisor emails.
func NormalizeRecord(record core.ContactRecord) core.ContactRecord {
	normalized := record
	normalized.ExternalNetwork = strings.ToUpper(strings.TrimSpace(record.ExternalNetwork))
	normalized.ContactAction = strings.ToUpper(strings.TrimSpace(record.ContactAction))
	normalized.ContactFirstName = strings.TrimSpace(record.ContactFirstName)
	normalized.ContactLastName = strings.TrimSpace(record.ContactLastName)
	normalized.ContactCompany = strings.TrimSpace(record.ContactCompany)
	normalized.ContactEmail = strings.ToLower(strings.TrimSpace(record.ContactEmail))
	normalized.AdvisorEmailList = strings.ToLower(strings.TrimSpace(record.AdvisorEmailList))
	return normalized
}

// SplitAdvisors splits a "~" delimited list, dropping blank entries.
func SplitAdvisors(list string) []string {
	parts := strings.Split(list, AdvisorSeparator)
	advisors := make([]string, 0, len(parts))
	for _, part := range parts {
		if advisor := strings.TrimSpace(part); advisor != "" {
			advisors = append(advisors, advisor)
		}
	}
	return advisors
}

// Row is a normalized record that passed validation.
type Row struct {
	Number   int
	Record   core.ContactRecord
	Network  core.Network
	Action   core.Action
	Advisors []string
}

func (r Row) Contact() core.Contact {
	return core.Contact{
		FirstName: r.Record.ContactFirstName,
		LastName:  r.Record.ContactLastName,
		Company:   r.Record.ContactCompany,
		Email:     r.Record.ContactEmail,
		Phone:     r.Record.ContactPhone,
	}
}

// ValidateRecord checks a normalized record. When the record must be skipped
// the returned status is the skip message and ok is false.
func ValidateRecord(number int, record core.ContactRecord) (row Row, status string, ok bool) {
	network, err := core.ParseNetwork(record.ExternalNetwork)
	if err != nil {
		return Row{}, StatusInvalidNetwork, false
	}
	action, err := core.ParseAction(record.ContactAction)
	if err != nil {
		return Row{}, StatusInvalidAction, false
	}
	if record.ContactEmail == "" {
		return Row{}, StatusMissingEmail, false
	}
	advisors := SplitAdvisors(record.AdvisorEmailList)
	if len(advisors) == 0 {
		return Row{}, StatusMissingAdvisors, false
	}
	return Row{
		Number:   number,
		Record:   record,
		Network:  network,
		Action:   action,
		Advisors: advisors,
	}, "", true
}
