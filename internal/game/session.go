package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Session is the complete state of one game. It is not safe for concurrent use;
// Service serializes access when sessions are shared.
type Session struct {
	Settings    PlayerSettings
	Stats       GameStats
	Competitors []Competitor
	Message     string
}

func SeedCompetitors() []Competitor {
	return []Competitor{
		{ID: 1, Name: "Highlands Coffee", Price: 40_000, Quality: 70, Marketing: 60, MarketShare: 30, Active: true, Money: decimal.NewFromInt(15_000)},
		{ID: 2, Name: "Phúc Long", Price: 32_000, Quality: 60, Marketing: 50, MarketShare: 25, Active: true, Money: decimal.NewFromInt(12_000)},
		{ID: 3, Name: "The Coffee House", Price: 38_000, Quality: 65, Marketing: 55, MarketShare: 20, Active: true, Money: decimal.NewFromInt(13_000)},
	}
}

func DefaultSettings() PlayerSettings {
	return PlayerSettings{Price: 35_000, Quality: 50, Marketing: 30}
}

func NewSession() *Session {
	return &Session{
		Settings: DefaultSettings(),
		Stats: GameStats{
			Round:        1,
			Money:        decimal.NewFromInt(StartingMoney),
			Satisfaction: StartingSatisfaction,
			MarketShare:  StartingMarketShare,
		},
		Competitors: SeedCompetitors(),
	}
}

func (s *Session) ActiveCount() int {
	n := 0
	for _, c := range s.Competitors {
		if c.Active {
			n++
		}
	}
	return n
}

func (s *Session) competitor(id int) (int, bool) {
	for i := range s.Competitors {
		if s.Competitors[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// SetSettings replaces the player settings verbatim.
func (s *Session) SetSettings(p PlayerSettings) Outcome {
	s.Settings = p
	return Outcome{Applied: true}
}

// PlayRound resolves one round: shares, customers, profit, satisfaction, commit,
// then competitor reactions to the settings just played.
func (s *Session) PlayRound() Outcome {
	shares := ComputeShares(s.Settings, s.Competitors)
	for _, cs := range shares.Competitors {
		if i, ok := s.competitor(cs.ID); ok {
			s.Competitors[i].MarketShare = cs.Share
		}
	}

	customers := CustomersForShare(shares.Player)
	revenue := int64(customers) * s.Settings.Price
	costs := OperatingCosts(s.Settings)
	profit := revenue - costs

	active := s.ActiveCount()
	satisfaction := BaseSatisfaction(s.Settings) * SatisfactionDamping(active)

	var (
		kind   MessageKind
		events []Event
	)
	switch {
	case active == 0:
		kind = MessageMonopolyRound
		events = append(events, Event{Kind: EffectShake, Duration: ShakeDuration})
	case active == 1:
		kind = MessageOligopolyRound
	case s.Settings.Price < LowPriceThreshold:
		kind = MessageLowPrice
		events = append(events, floatingIcons(IconCustomer, StrategyIcons))
	case s.Settings.Quality > HighQualityThreshold:
		kind = MessageHighQuality
		events = append(events, floatingIcons(IconStar, StrategyIcons))
	default:
		kind = MessageHealthy
	}
	if n := RewardIcons(profit); n > 0 {
		events = append(events, floatingIcons(IconMoney, n))
	}

	played := s.Stats.Round
	s.Message = Message(kind)
	s.Stats = GameStats{
		Round:          played + 1,
		Money:          s.Stats.Money.Add(decimal.NewFromInt(profit)),
		Customers:      customers,
		Satisfaction:   int(math.Round(satisfaction)),
		MarketShare:    shares.Player,
		MonopolyStatus: active == 0,
	}

	s.reactToPlayer()

	return Outcome{
		Applied:     true,
		MessageKind: kind,
		Message:     s.Message,
		Events:      events,
		Round: &RoundReport{
			Round:             played,
			Customers:         customers,
			Revenue:           revenue,
			Costs:             costs,
			Profit:            profit,
			Satisfaction:      s.Stats.Satisfaction,
			MarketShare:       shares.Player,
			ActiveCompetitors: active,
		},
	}
}

// reactToPlayer undercuts and out-brews the player. Marketing never changes.
func (s *Session) reactToPlayer() {
	for i := range s.Competitors {
		c := &s.Competitors[i]
		if !c.Active {
			continue
		}
		if s.Settings.Price < c.Price {
			c.Price = max(CompetitorPriceFloor, c.Price-CompetitorPriceCut)
		}
		if s.Settings.Quality > c.Quality {
			c.Quality = min(CompetitorQualityCap, c.Quality+CompetitorQualityStep)
		}
	}
}

// Acquire buys out an active competitor. Unknown or already acquired ids are
// ignored without error.
func (s *Session) Acquire(id int) (Outcome, error) {
	i, ok := s.competitor(id)
	if !ok || !s.Competitors[i].Active {
		return Outcome{}, nil
	}
	target := s.Competitors[i]
	cost := AcquisitionCost(target)
	if s.Stats.Money.LessThan(cost) {
		err := fmt.Errorf("%w: acquiring %s costs %s, balance %s",
			ErrInsufficientFunds, target.Name, cost.StringFixed(0), s.Stats.Money.StringFixed(0))
		return Outcome{
			MessageKind: MessageInsufficientFunds,
			Notice:      Message(MessageInsufficientFunds),
		}, err
	}

	s.Competitors[i].Active = false
	s.Stats.Money = s.Stats.Money.Sub(cost)
	s.Stats.MarketShare += target.MarketShare

	remaining := s.ActiveCount()
	out := Outcome{
		Applied: true,
		Acquisition: &AcquisitionReport{
			CompetitorID:     target.ID,
			Name:             target.Name,
			Cost:             cost,
			ShareGained:      target.MarketShare,
			RemainingActive:  remaining,
			MonopolyAchieved: remaining == 0,
		},
	}
	if remaining == 0 {
		out.MessageKind = MessageMonopolyAchieved
		out.Events = []Event{{Kind: EffectCelebrate, Duration: CelebrationDuration}}
		s.Message = Message(MessageMonopolyAchieved)
	} else {
		out.MessageKind = MessageAcquired
		s.Message = Message(MessageAcquired, target.Name)
	}
	out.Message = s.Message
	return out, nil
}

// CanAfford reports whether the player could acquire the competitor right now.
func (s *Session) CanAfford(id int) bool {
	i, ok := s.competitor(id)
	if !ok || !s.Competitors[i].Active {
		return false
	}
	return s.Stats.Money.GreaterThanOrEqual(AcquisitionCost(s.Competitors[i]))
}

// Rank is the player's position by market share among active participants.
func (s *Session) Rank() int {
	rank := 1
	for _, c := range s.Competitors {
		if c.Active && c.MarketShare > s.Stats.MarketShare {
			rank++
		}
	}
	return rank
}

func (s *Session) Snapshot() Snapshot {
	competitors := make([]Competitor, len(s.Competitors))
	copy(competitors, s.Competitors)

	offers := make([]AcquisitionOffer, 0, len(s.Competitors))
	for _, c := range s.Competitors {
		if !c.Active {
			continue
		}
		cost := AcquisitionCost(c)
		offers = append(offers, AcquisitionOffer{
			CompetitorID: c.ID,
			Name:         c.Name,
			Cost:         cost,
			Affordable:   s.Stats.Money.GreaterThanOrEqual(cost),
		})
	}

	rank := s.Rank()
	return Snapshot{
		Settings:       s.Settings,
		Stats:          s.Stats,
		Competitors:    competitors,
		Message:        s.Message,
		Market:         ClassifyMarket(s.ActiveCount()),
		Rank:           rank,
		IsMarketLeader: rank == 1,
		Offers:         offers,
	}
}

func floatingIcons(icon IconKind, count int) Event {
	return Event{Kind: EffectFloatingIcons, Icon: icon, Count: count, Duration: FloatingIconsDuration}
}
