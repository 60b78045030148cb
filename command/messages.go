package command

import (
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
)

const (
	TypeAddContact    = "contacts.command.contact.add"
	TypeUpdateContact = "contacts.command.contact.update"
	TypeDeleteContact = "contacts.command.contact.delete"
)

type AddContactMessage struct {
	Network  core.Network
	Contact  core.Contact
	Advisors []string
}

func (AddContactMessage) Type() string { return TypeAddContact }

func (m AddContactMessage) Validate() error {
	if err := validateNetwork(m.Network); err != nil {
		return err
	}
	if err := validateEmail(m.Contact.Email); err != nil {
		return err
	}
	if len(m.Advisors) == 0 {
		return commandValidationError("advisors", "at least one advisor email is required")
	}
	for _, advisor := range m.Advisors {
		if strings.TrimSpace(advisor) == "" {
			return commandValidationError("advisors", "advisor email must not be blank")
		}
	}
	return nil
}

type UpdateContactMessage struct {
	Network core.Network
	Contact core.Contact
	Advisor string
}

func (UpdateContactMessage) Type() string { return TypeUpdateContact }

func (m UpdateContactMessage) Validate() error {
	if err := validateNetwork(m.Network); err != nil {
		return err
	}
	if err := validateEmail(m.Contact.Email); err != nil {
		return err
	}
	return validateAdvisor(m.Advisor)
}

type DeleteContactMessage struct {
	Network core.Network
	Email   string
	Advisor string
}

func (DeleteContactMessage) Type() string { return TypeDeleteContact }

func (m DeleteContactMessage) Validate() error {
	if err := validateNetwork(m.Network); err != nil {
		return err
	}
	if err := validateEmail(m.Email); err != nil {
		return err
	}
	return validateAdvisor(m.Advisor)
}

func validateNetwork(network core.Network) error {
	if !network.Valid() {
		return commandValidationError("network", "external network must be WECHAT or WHATSAPP")
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return commandValidationError("email", "contact email is required")
	}
	return nil
}

func validateAdvisor(advisor string) error {
	if strings.TrimSpace(advisor) == "" {
		return commandValidationError("advisor", "advisor email is required")
	}
	return nil
}
