package game

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPlayRoundFromSeed(t *testing.T) {
	s := NewSession()
	out := s.PlayRound()

	wantShare := 37 / 178.5 * 100
	if math.Abs(s.Stats.MarketShare-wantShare) > shareTolerance {
		t.Fatalf("player share got %f want %f", s.Stats.MarketShare, wantShare)
	}
	for _, c := range s.Competitors {
		if c.MarketShare <= s.Stats.MarketShare {
			t.Fatalf("seeded %s should out-share the default player: %f <= %f", c.Name, c.MarketShare, s.Stats.MarketShare)
		}
	}
	if s.Stats.Round != 2 {
		t.Fatalf("round got %d want 2", s.Stats.Round)
	}
	if s.Stats.Customers != 207 || s.Stats.Customers != int(math.Floor(wantShare/100*1000)) {
		t.Fatalf("customers got %d want 207", s.Stats.Customers)
	}
	if out.Round == nil || out.Round.Profit != 7_235_500 {
		t.Fatalf("unexpected round report %+v", out.Round)
	}
	if !s.Stats.Money.Equal(decimal.NewFromInt(7_245_500)) {
		t.Fatalf("money got %s want 7245500", s.Stats.Money)
	}
	if s.Stats.Satisfaction != 42 {
		t.Fatalf("satisfaction got %d want 42", s.Stats.Satisfaction)
	}
	if s.Stats.MonopolyStatus {
		t.Fatalf("monopoly must be false with three active competitors")
	}
	if out.MessageKind != MessageHealthy || s.Message != Message(MessageHealthy) {
		t.Fatalf("message kind got %q", out.MessageKind)
	}
	if len(out.Events) != 1 || out.Events[0].Icon != IconMoney || out.Events[0].Count != MaxRewardIcons {
		t.Fatalf("expected a single capped money cue, got %+v", out.Events)
	}
	if s.Rank() != 4 {
		t.Fatalf("rank got %d want 4", s.Rank())
	}
}

func TestPlayRoundCompetitorsReactAfterCommit(t *testing.T) {
	s := NewSession()
	before := ComputeShares(s.Settings, s.Competitors)
	s.PlayRound()

	// Shares for this round come from the pre-reaction prices.
	for _, cs := range before.Competitors {
		i, _ := s.competitor(cs.ID)
		if math.Abs(s.Competitors[i].MarketShare-cs.Share) > shareTolerance {
			t.Fatalf("competitor %d share got %f want %f", cs.ID, s.Competitors[i].MarketShare, cs.Share)
		}
	}

	wantPrices := map[int]int64{1: 38_000, 2: 32_000, 3: 36_000}
	for _, c := range s.Competitors {
		if c.Price != wantPrices[c.ID] {
			t.Fatalf("%s price got %d want %d", c.Name, c.Price, wantPrices[c.ID])
		}
	}
	seed := SeedCompetitors()
	for i, c := range s.Competitors {
		if c.Quality != seed[i].Quality || c.Marketing != seed[i].Marketing {
			t.Fatalf("%s quality/marketing should be unchanged", c.Name)
		}
	}
}

func TestReactionFloorsAndCaps(t *testing.T) {
	s := NewSession()
	s.Competitors[0].Price = 26_000
	s.Competitors[0].Quality = 98
	s.Settings = PlayerSettings{Price: MinPrice, Quality: MaxQuality, Marketing: 10}
	s.PlayRound()

	c := s.Competitors[0]
	if c.Price != CompetitorPriceFloor {
		t.Fatalf("price got %d want floor %d", c.Price, CompetitorPriceFloor)
	}
	if c.Quality != CompetitorQualityCap {
		t.Fatalf("quality got %d want cap %d", c.Quality, CompetitorQualityCap)
	}
	if s.Competitors[1].Quality != 65 {
		t.Fatalf("quality step got %d want 65", s.Competitors[1].Quality)
	}
	if c.Marketing != 60 {
		t.Fatalf("marketing must never react, got %d", c.Marketing)
	}
}

func TestReactionIgnoresInactive(t *testing.T) {
	s := NewSession()
	s.Competitors[0].Active = false
	s.Settings.Price = MinPrice
	s.PlayRound()
	if s.Competitors[0].Price != 40_000 {
		t.Fatalf("acquired competitor price changed to %d", s.Competitors[0].Price)
	}
	if s.Competitors[0].MarketShare != 30 {
		t.Fatalf("acquired competitor share should stay frozen, got %f", s.Competitors[0].MarketShare)
	}
}

func TestPlayRoundMessagePriority(t *testing.T) {
	tests := []struct {
		name     string
		settings PlayerSettings
		inactive []int
		want     MessageKind
		icon     IconKind
	}{
		{name: "low price wins over quality", settings: PlayerSettings{Price: 24_000, Quality: 90, Marketing: 30}, want: MessageLowPrice, icon: IconCustomer},
		{name: "quality", settings: PlayerSettings{Price: 35_000, Quality: 90, Marketing: 30}, want: MessageHighQuality, icon: IconStar},
		{name: "quality threshold is exclusive", settings: PlayerSettings{Price: 35_000, Quality: 80, Marketing: 30}, want: MessageHealthy},
		{name: "oligopoly beats low price", settings: PlayerSettings{Price: 20_000, Quality: 90, Marketing: 30}, inactive: []int{1, 2}, want: MessageOligopolyRound},
		{name: "monopoly", settings: DefaultSettings(), inactive: []int{1, 2, 3}, want: MessageMonopolyRound},
	}
	for _, tc := range tests {
		s := NewSession()
		s.Settings = tc.settings
		for _, id := range tc.inactive {
			i, _ := s.competitor(id)
			s.Competitors[i].Active = false
		}
		out := s.PlayRound()
		if out.MessageKind != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, out.MessageKind, tc.want)
		}
		if tc.icon != "" {
			if len(out.Events) == 0 || out.Events[0].Icon != tc.icon || out.Events[0].Count != StrategyIcons {
				t.Fatalf("%s: expected %s cue first, got %+v", tc.name, tc.icon, out.Events)
			}
		}
	}
}

func TestPlayRoundDamping(t *testing.T) {
	s := NewSession()
	s.Competitors[0].Active = false
	s.Competitors[1].Active = false
	s.PlayRound()
	if s.Stats.Satisfaction != 34 {
		t.Fatalf("oligopoly satisfaction got %d want 34", s.Stats.Satisfaction)
	}

	s = NewSession()
	for i := range s.Competitors {
		s.Competitors[i].Active = false
	}
	out := s.PlayRound()
	if !s.Stats.MonopolyStatus {
		t.Fatalf("expected monopoly status")
	}
	if s.Stats.Satisfaction != 25 {
		t.Fatalf("monopoly satisfaction got %d want 25", s.Stats.Satisfaction)
	}
	if s.Stats.MarketShare != 100 || s.Stats.Customers != TotalMarketCustomers {
		t.Fatalf("monopolist should serve the whole market: share=%f customers=%d", s.Stats.MarketShare, s.Stats.Customers)
	}
	if len(out.Events) == 0 || out.Events[0].Kind != EffectShake || out.Events[0].Duration != ShakeDuration {
		t.Fatalf("expected shake cue, got %+v", out.Events)
	}
}

func TestMoneyMayGoNegative(t *testing.T) {
	s := NewSession()
	s.SetSettings(PlayerSettings{Price: 0, Quality: 100, Marketing: 100})
	out := s.PlayRound()
	if out.Round.Profit != -18_000 {
		t.Fatalf("profit got %d want -18000", out.Round.Profit)
	}
	if !s.Stats.Money.Equal(decimal.NewFromInt(-8000)) {
		t.Fatalf("money got %s want -8000", s.Stats.Money)
	}
	for _, e := range out.Events {
		if e.Icon == IconMoney {
			t.Fatalf("no money cue expected for a loss")
		}
	}
}

func TestAcquireInsufficientFunds(t *testing.T) {
	s := NewSession()
	before := s.Snapshot()

	out, err := s.Acquire(1)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if out.Applied || out.Notice == "" {
		t.Fatalf("expected rejected outcome with notice, got %+v", out)
	}
	if !s.Competitors[0].Active || !s.Stats.Money.Equal(before.Stats.Money) || s.Message != before.Message {
		t.Fatalf("rejected acquisition must not change state")
	}
}

func TestAcquireUnknownAndRepeatedAreNoOps(t *testing.T) {
	s := NewSession()
	s.Stats.Money = decimal.NewFromInt(1_000_000)

	out, err := s.Acquire(42)
	if err != nil || out.Applied {
		t.Fatalf("unknown id: out=%+v err=%v", out, err)
	}
	if s.Message != "" {
		t.Fatalf("unknown id must not set a message")
	}

	if _, err := s.Acquire(2); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	money := s.Stats.Money
	share := s.Stats.MarketShare
	out, err = s.Acquire(2)
	if err != nil || out.Applied {
		t.Fatalf("repeat acquire: out=%+v err=%v", out, err)
	}
	if !s.Stats.Money.Equal(money) || s.Stats.MarketShare != share {
		t.Fatalf("repeat acquire changed state")
	}
}

func TestAcquireTransfersShareAndCharges(t *testing.T) {
	s := NewSession()
	s.Stats.Money = decimal.NewFromInt(100_000)

	out, err := s.Acquire(2)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !out.Applied || out.MessageKind != MessageAcquired {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if s.Message != Message(MessageAcquired, "Phúc Long") {
		t.Fatalf("message got %q", s.Message)
	}
	if !s.Stats.Money.Equal(decimal.NewFromInt(100_000 - 36_500)) {
		t.Fatalf("money got %s want 63500", s.Stats.Money)
	}
	if s.Stats.MarketShare != StartingMarketShare+25 {
		t.Fatalf("share got %f want 50", s.Stats.MarketShare)
	}
	if s.Competitors[1].Active {
		t.Fatalf("competitor should be inactive")
	}
	if s.Stats.MonopolyStatus {
		t.Fatalf("acquisition must not touch monopoly status")
	}
	if len(out.Events) != 0 {
		t.Fatalf("plain acquisition emits no cue, got %+v", out.Events)
	}
}

func TestAcquireAllThenMonopolyRound(t *testing.T) {
	s := NewSession()
	s.PlayRound()

	var last Outcome
	for _, id := range []int{1, 2, 3} {
		out, err := s.Acquire(id)
		if err != nil {
			t.Fatalf("acquire %d: %v", id, err)
		}
		last = out
	}
	for _, c := range s.Competitors {
		if c.Active {
			t.Fatalf("%s still active", c.Name)
		}
	}
	if last.MessageKind != MessageMonopolyAchieved || !last.Acquisition.MonopolyAchieved {
		t.Fatalf("expected monopoly achieved, got %+v", last)
	}
	if len(last.Events) != 1 || last.Events[0].Kind != EffectCelebrate || last.Events[0].Duration != CelebrationDuration {
		t.Fatalf("expected celebration cue, got %+v", last.Events)
	}
	if s.Stats.MonopolyStatus {
		t.Fatalf("monopoly status flips on the next round, not on acquisition")
	}

	s.PlayRound()
	if !s.Stats.MonopolyStatus {
		t.Fatalf("expected monopoly after round")
	}
	if s.Snapshot().Market.Kind != MarketMonopoly {
		t.Fatalf("expected monopoly classification")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewSession()
	snap := s.Snapshot()
	snap.Competitors[0].Active = false
	snap.Competitors[0].Name = "changed"
	if !s.Competitors[0].Active || s.Competitors[0].Name != "Highlands Coffee" {
		t.Fatalf("snapshot must not alias session state")
	}
	if len(snap.Offers) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(snap.Offers))
	}
	for _, o := range snap.Offers {
		if o.Affordable {
			t.Fatalf("starting money cannot afford %s", o.Name)
		}
	}
	if snap.Market.Kind != MarketPerfectCompetition || snap.Rank != 2 {
		t.Fatalf("unexpected derived view: market=%s rank=%d", snap.Market.Kind, snap.Rank)
	}
}

func TestCanAfford(t *testing.T) {
	s := NewSession()
	if s.CanAfford(2) {
		t.Fatalf("10000 should not afford Phúc Long")
	}
	s.Stats.Money = decimal.NewFromInt(36_500)
	if !s.CanAfford(2) {
		t.Fatalf("exact balance should afford")
	}
	if s.CanAfford(99) {
		t.Fatalf("unknown competitor is never affordable")
	}
}
