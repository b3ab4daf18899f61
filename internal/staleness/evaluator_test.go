package staleness

import (
	"strings"
	"testing"
	"time"

	"github.com/rvinod/tickwatch/internal/calendar"
	"github.com/rvinod/tickwatch/internal/exchange"
	"github.com/rvinod/tickwatch/internal/ledger"
	"github.com/rvinod/tickwatch/internal/model"
	"github.com/rvinod/tickwatch/internal/notify"
	"github.com/rvinod/tickwatch/internal/prefs"
)

// marketOpen is Monday 2025-04-21 11:00 IST: NSE, MCX, and CDS all trading.
var marketOpen = time.Date(2025, 4, 21, 11, 0, 0, 0, time.FixedZone("IST", 5*3600+30*60))

type fixture struct {
	ledger *ledger.Ledger
	store  *prefs.Store
	sink   *notify.Sink
	eval   *Evaluator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := prefs.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("prefs.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	l := ledger.New()
	sink := notify.NewSink(0)
	eval := New(l, store, calendar.New(nil, nil), exchange.NewResolver(nil, ""), sink, nil)
	return &fixture{ledger: l, store: store, sink: sink, eval: eval}
}

func (f *fixture) seed(t *testing.T, at time.Time, prices map[string]float64) {
	t.Helper()
	snap := model.Snapshot{ReceivedAt: at, AsOf: at, Prices: make(map[string]model.Tick)}
	for ticker, price := range prices {
		snap.Prices[ticker] = model.Tick{Price: price, AsOf: at}
	}
	f.ledger.Apply(snap, at)
}

func (f *fixture) staleEvents() []notify.Event {
	var out []notify.Event
	for _, ev := range f.sink.History() {
		if ev.Kind == notify.KindStale {
			out = append(out, ev)
		}
	}
	return out
}

func TestEvaluate_RelianceScenario(t *testing.T) {
	f := newFixture(t)
	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"RELIANCE": 1284.5})

	// 29999ms elapsed: under the 30s default, not stale.
	set := f.eval.Evaluate(t0.Add(29999 * time.Millisecond))
	if len(set) != 0 {
		t.Fatalf("stale at 29999ms: %v", set)
	}

	// 30001ms: stale, exactly one notification naming RELIANCE.
	set = f.eval.Evaluate(t0.Add(30001 * time.Millisecond))
	if _, ok := set["RELIANCE"]; !ok {
		t.Fatal("RELIANCE not stale at 30001ms")
	}
	events := f.staleEvents()
	if len(events) != 1 {
		t.Fatalf("stale events = %d, want 1", len(events))
	}
	if !strings.Contains(events[0].Message, "RELIANCE") || !strings.Contains(events[0].Message, "30 seconds") {
		t.Errorf("message = %q, want RELIANCE and its 30s threshold", events[0].Message)
	}

	// Price changes at t0+30500ms: fresh again, and no shrinkage event.
	f.seed(t, t0.Add(30500*time.Millisecond), map[string]float64{"RELIANCE": 1285.0})
	set = f.eval.Evaluate(t0.Add(30600 * time.Millisecond))
	if len(set) != 0 {
		t.Errorf("still stale after price change: %v", set)
	}
	if got := len(f.staleEvents()); got != 1 {
		t.Errorf("stale events after recovery = %d, want still 1", got)
	}
}

func TestEvaluate_SingleNotificationPerEpisode(t *testing.T) {
	f := newFixture(t)
	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"INFY": 1400})

	// Ten consecutive ticks beyond the threshold: one event total.
	for i := 0; i < 10; i++ {
		f.eval.Evaluate(t0.Add(31*time.Second + time.Duration(i)*time.Second))
	}
	if got := len(f.staleEvents()); got != 1 {
		t.Fatalf("stale events across 10 ticks = %d, want 1", got)
	}

	// Fresh again, then a second episode: exactly one more.
	t1 := t0.Add(45 * time.Second)
	f.seed(t, t1, map[string]float64{"INFY": 1401})
	f.eval.Evaluate(t1.Add(time.Second))

	for i := 0; i < 5; i++ {
		f.eval.Evaluate(t1.Add(31*time.Second + time.Duration(i)*time.Second))
	}
	if got := len(f.staleEvents()); got != 2 {
		t.Errorf("stale events after second episode = %d, want 2", got)
	}
}

func TestEvaluate_NoStalenessOutsideMarketHours(t *testing.T) {
	f := newFixture(t)

	// Sunday: every configured segment is closed.
	sunday := time.Date(2025, 4, 20, 11, 0, 0, 0, time.FixedZone("IST", 5*3600+30*60))
	f.seed(t, sunday, map[string]float64{"RELIANCE": 1284.5, "CRUDEOIL25APRFUT": 5300})

	set := f.eval.Evaluate(sunday.Add(time.Hour))
	if len(set) != 0 {
		t.Errorf("stale set on a closed market = %v, want empty", set)
	}
	if got := len(f.staleEvents()); got != 0 {
		t.Errorf("stale events = %d, want 0", got)
	}
}

func TestEvaluate_ThresholdOverridePrecedence(t *testing.T) {
	f := newFixture(t)
	if err := f.store.SetThreshold("RELIANCE", "NSE", 10*time.Second); err != nil {
		t.Fatalf("SetThreshold failed: %v", err)
	}

	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"RELIANCE": 1284.5, "INFY": 1400})

	// 10001ms: only the overridden ticker is stale.
	set := f.eval.Evaluate(t0.Add(10001 * time.Millisecond))
	if _, ok := set["RELIANCE"]; !ok {
		t.Error("RELIANCE not stale past its 10s override")
	}
	if _, ok := set["INFY"]; ok {
		t.Error("INFY stale before the 30s default")
	}
	if s := set["RELIANCE"]; s.Threshold != 10*time.Second {
		t.Errorf("threshold = %v, want 10s", s.Threshold)
	}

	events := f.staleEvents()
	if len(events) != 1 || !strings.Contains(events[0].Message, "10 seconds") {
		t.Errorf("events = %v, want one naming the 10s threshold", events)
	}
}

func TestEvaluate_MonitoringKillSwitch(t *testing.T) {
	f := newFixture(t)
	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"RELIANCE": 1284.5, "INFY": 1400})

	if enabled, _ := f.store.ToggleMonitoring(); enabled {
		t.Fatal("toggle did not disable monitoring")
	}

	set := f.eval.Evaluate(t0.Add(time.Hour))
	if len(set) != 0 {
		t.Errorf("stale set with monitoring off = %v, want empty", set)
	}
}

func TestEvaluate_ExchangeAlertToggle(t *testing.T) {
	f := newFixture(t)
	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"RELIANCE": 1284.5, "CRUDEOIL25APRFUT": 5300})

	// Disable NSE alerts; MCX stays enabled.
	if _, err := f.store.ToggleExchangeAlert("NSE"); err != nil {
		t.Fatalf("ToggleExchangeAlert failed: %v", err)
	}

	set := f.eval.Evaluate(t0.Add(time.Minute))
	if _, ok := set["RELIANCE"]; ok {
		t.Error("RELIANCE stale with NSE alerts disabled")
	}
	if _, ok := set["CRUDEOIL25APRFUT"]; !ok {
		t.Error("CRUDEOIL25APRFUT not stale with MCX alerts enabled")
	}
}

func TestEvaluate_MultipleNewlyStaleEnumerated(t *testing.T) {
	f := newFixture(t)
	t0 := marketOpen
	f.seed(t, t0, map[string]float64{"RELIANCE": 1284.5, "INFY": 1400})

	f.eval.Evaluate(t0.Add(31 * time.Second))
	events := f.staleEvents()
	if len(events) != 1 {
		t.Fatalf("stale events = %d, want 1", len(events))
	}
	msg := events[0].Message
	if !strings.Contains(msg, "INFY") || !strings.Contains(msg, "RELIANCE") {
		t.Errorf("message = %q, want both tickers enumerated", msg)
	}
}
