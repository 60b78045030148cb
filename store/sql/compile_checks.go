package sqlstore

import "github.com/goliatone/go-connect-contacts/core"

var _ core.RunRecorder = (*RunStore)(nil)
