package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
)

type AddContactRequest struct {
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	CompanyName           string   `json:"companyName"`
	EmailAddress          string   `json:"emailAddress"`
	PhoneNumber           string   `json:"phoneNumber"`
	ExternalNetwork       string   `json:"externalNetwork"`
	AdvisorEmailAddresses []string `json:"advisorEmailAddresses"`
	OnboarderEmailAddress string   `json:"onboarderEmailAddress"`
}

type UpdateContactRequest struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	CompanyName         string `json:"companyName"`
	PhoneNumber         string `json:"phoneNumber"`
	ExternalNetwork     string `json:"externalNetwork"`
	AdvisorEmailAddress string `json:"advisorEmailAddress"`
}

// AddContact registers a contact with every advisor in advisors. The first
// advisor is recorded as the onboarder.
func (c *Client) AddContact(ctx context.Context, network core.Network, contact core.Contact, advisors []string) (core.Outcome, error) {
	if len(advisors) == 0 || strings.TrimSpace(advisors[0]) == "" {
		return core.Outcome{}, core.BadInputError("api: add contact requires at least one advisor", map[string]any{
			"email": contact.Email,
		})
	}
	return c.Do(ctx, Call{
		Operation: OperationAddContact,
		Network:   network,
		Method:    http.MethodPost,
		Path:      AddContactPath(),
		Body: AddContactRequest{
			FirstName:             contact.FirstName,
			LastName:              contact.LastName,
			CompanyName:           contact.Company,
			EmailAddress:          contact.Email,
			PhoneNumber:           contact.Phone,
			ExternalNetwork:       string(network),
			AdvisorEmailAddresses: append([]string(nil), advisors...),
			OnboarderEmailAddress: advisors[0],
		},
	})
}

func (c *Client) UpdateContact(ctx context.Context, network core.Network, contact core.Contact, advisor string) (core.Outcome, error) {
	return c.Do(ctx, Call{
		Operation: OperationUpdateContact,
		Network:   network,
		Method:    http.MethodPost,
		Path:      UpdateContactPath(contact.Email),
		Body: UpdateContactRequest{
			FirstName:           contact.FirstName,
			LastName:            contact.LastName,
			CompanyName:         contact.Company,
			PhoneNumber:         contact.Phone,
			ExternalNetwork:     string(network),
			AdvisorEmailAddress: advisor,
		},
	})
}

func (c *Client) DeleteContact(ctx context.Context, network core.Network, email string, advisor string) (core.Outcome, error) {
	return c.Do(ctx, Call{
		Operation: OperationDeleteContact,
		Network:   network,
		Method:    http.MethodDelete,
		Path:      DeleteContactPath(network, email, advisor),
	})
}

var _ core.ContactService = (*Client)(nil)
