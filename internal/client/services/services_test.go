package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
	"github.com/dmitrijs2005/leadconsole/internal/testutil"
)

type fixture struct {
	env     Env
	gw      *testutil.FakeGateway
	notices *notice.Center
	clock   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc := clock.Fake(time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC))
	gw := testutil.NewFakeGateway()
	nc := notice.NewCenter(fc, logging.Nop())
	return &fixture{
		env: Env{
			Client:       gw,
			Notices:      nc,
			Logger:       logging.Nop(),
			Clock:        fc,
			ReportsDelay: 2 * time.Second,
			Rand:         func() float64 { return 0.5 },
		},
		gw:      gw,
		notices: nc,
		clock:   fc,
	}
}

func settle(t *testing.T, p *reconcile.Pending) reconcile.Settlement {
	t.Helper()
	require.NotNil(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := p.Wait(ctx)
	require.NoError(t, err)
	return s
}

func (f *fixture) classes() []notice.Class {
	var out []notice.Class
	for _, n := range f.notices.Recent(0) {
		out = append(out, n.Class)
	}
	return out
}
