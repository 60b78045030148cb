package devkit

import (
	"context"
	"sync"

	"github.com/goliatone/go-connect-contacts/core"
)

// ContactCall records one invocation of FakeContactService.
type ContactCall struct {
	Operation string
	Network   core.Network
	Contact   core.Contact
	Advisors  []string
}

// FakeContactService answers every call with Outcome/Err unless Respond is
// set, in which case Respond decides per call.
type FakeContactService struct {
	mu      sync.Mutex
	calls   []ContactCall
	Outcome core.Outcome
	Err     error
	Respond func(call ContactCall) (core.Outcome, error)
}

func NewFakeContactService(outcome core.Outcome) *FakeContactService {
	return &FakeContactService{Outcome: outcome}
}

func (s *FakeContactService) AddContact(_ context.Context, network core.Network, contact core.Contact, advisors []string) (core.Outcome, error) {
	return s.record(ContactCall{Operation: "add", Network: network, Contact: contact, Advisors: append([]string(nil), advisors...)})
}

func (s *FakeContactService) UpdateContact(_ context.Context, network core.Network, contact core.Contact, advisor string) (core.Outcome, error) {
	return s.record(ContactCall{Operation: "update", Network: network, Contact: contact, Advisors: []string{advisor}})
}

func (s *FakeContactService) DeleteContact(_ context.Context, network core.Network, email string, advisor string) (core.Outcome, error) {
	return s.record(ContactCall{Operation: "delete", Network: network, Contact: core.Contact{Email: email}, Advisors: []string{advisor}})
}

func (s *FakeContactService) Calls() []ContactCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ContactCall(nil), s.calls...)
}

func (s *FakeContactService) record(call ContactCall) (core.Outcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	respond := s.Respond
	outcome, err := s.Outcome, s.Err
	s.mu.Unlock()
	if respond != nil {
		return respond(call)
	}
	return outcome, err
}

var _ core.ContactService = (*FakeContactService)(nil)
