// Package core contains the contact-sync domain contracts, entities, error
// taxonomy and configuration. Adapters (auth, transport, api, storage) depend
// on this package; core must not depend on any of them.
package core
