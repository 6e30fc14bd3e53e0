package cmd

import (
	"context"

	"github.com/chimpdao/chipauth/internal/apdu"
	"github.com/chimpdao/chipauth/internal/chiperr"
)

// unwiredPoller reports that no physical NFC/contactless reader driver is
// attached. The actual platform tag poller is an external collaborator
// (spec.md §1): a real build links a CGo or platform-SDK binding here in
// its place.
type unwiredPoller struct{}

func (unwiredPoller) Poll(_ context.Context, _ func(apdu.RawTransport), _ func()) error {
	return chiperr.New(chiperr.Transport, "no reader driver is wired into this build")
}
