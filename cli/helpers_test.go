// ABOUTME: Shared fixtures for CLI command tests
// ABOUTME: Builds an App over memory storage with a canned gateway and captured output
package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"go.uber.org/zap/zaptest"
)

type cannedGateway struct {
	available bool
	reply     string
	calls     int
	last      gateway.Request
}

func (g *cannedGateway) Complete(_ context.Context, req gateway.Request) (string, error) {
	g.calls++
	g.last = req
	return g.reply, nil
}

func (g *cannedGateway) CheckAvailable(context.Context) bool { return g.available }

func (g *cannedGateway) Configured() bool { return true }

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	app := NewApp(db.NewMemoryStorage(), &cannedGateway{available: true, reply: "Posso ajudar!"}, zaptest.NewLogger(t))
	out := &bytes.Buffer{}
	app.Out = out
	app.In = strings.NewReader("")
	return app, out
}
