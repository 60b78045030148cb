package api

import (
	"net/url"

	"github.com/goliatone/go-connect-contacts/core"
)

const (
	OperationAddContact    = "add_contact"
	OperationUpdateContact = "update_contact"
	OperationDeleteContact = "delete_contact"
)

const addContactPath = "/api/v2/customer/contacts"

func AddContactPath() string {
	return addContactPath
}

func UpdateContactPath(email string) string {
	return "/api/v1/customer/contacts/" + url.QueryEscape(email) + "/update"
}

func DeleteContactPath(network core.Network, email string, advisor string) string {
	return "/api/v1/customer/contacts/advisorEmailAddress/" + url.QueryEscape(advisor) +
		"/contactEmailAddress/" + url.QueryEscape(email) +
		"/externalNetwork/" + url.PathEscape(string(network))
}
