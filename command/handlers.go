package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-connect-contacts/core"
)

type AddContactCommand struct {
	service core.ContactService
}

func NewAddContactCommand(service core.ContactService) *AddContactCommand {
	return &AddContactCommand{service: service}
}

func (c *AddContactCommand) Execute(ctx context.Context, msg AddContactMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: contact service is required")
	}
	out, err := c.service.AddContact(ctx, msg.Network, msg.Contact, msg.Advisors)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateContactCommand struct {
	service core.ContactService
}

func NewUpdateContactCommand(service core.ContactService) *UpdateContactCommand {
	return &UpdateContactCommand{service: service}
}

func (c *UpdateContactCommand) Execute(ctx context.Context, msg UpdateContactMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: contact service is required")
	}
	out, err := c.service.UpdateContact(ctx, msg.Network, msg.Contact, msg.Advisor)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteContactCommand struct {
	service core.ContactService
}

func NewDeleteContactCommand(service core.ContactService) *DeleteContactCommand {
	return &DeleteContactCommand{service: service}
}

func (c *DeleteContactCommand) Execute(ctx context.Context, msg DeleteContactMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: contact service is required")
	}
	out, err := c.service.DeleteContact(ctx, msg.Network, msg.Email, msg.Advisor)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// Commands groups the contact commands bound to one service.
type Commands struct {
	Add    *AddContactCommand
	Update *UpdateContactCommand
	Delete *DeleteContactCommand
}

func NewCommands(service core.ContactService) Commands {
	return Commands{
		Add:    NewAddContactCommand(service),
		Update: NewUpdateContactCommand(service),
		Delete: NewDeleteContactCommand(service),
	}
}

// Run validates msg, executes cmd and returns the outcome it stored.
func Run[T any](ctx context.Context, cmd gocmd.Commander[T], msg T) (core.Outcome, error) {
	if cmd == nil {
		return core.Outcome{}, commandDependencyError("command: command is required")
	}
	if err := gocmd.ValidateMessage(msg); err != nil {
		return core.Outcome{}, commandWrapValidation(err, "command: invalid message")
	}
	collector := gocmd.NewResult[core.Outcome]()
	if err := cmd.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return core.Outcome{}, err
	}
	outcome, ok := collector.Load()
	if !ok {
		return core.Outcome{}, commandDependencyError("command: no outcome recorded")
	}
	return outcome, nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

var (
	_ gocmd.Commander[AddContactMessage]    = (*AddContactCommand)(nil)
	_ gocmd.Commander[UpdateContactMessage] = (*UpdateContactCommand)(nil)
	_ gocmd.Commander[DeleteContactMessage] = (*DeleteContactCommand)(nil)
)
