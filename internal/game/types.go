package game

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlayerSettings struct {
	Price     int64 `json:"price"`
	Quality   int   `json:"quality"`
	Marketing int   `json:"marketing"`
}

type Competitor struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       int64           `json:"price"`
	Quality     int             `json:"quality"`
	Marketing   int             `json:"marketing"`
	MarketShare float64         `json:"market_share"`
	Active      bool            `json:"is_active"`
	Money       decimal.Decimal `json:"money"`
}

type GameStats struct {
	Round          int             `json:"round"`
	Money          decimal.Decimal `json:"money"`
	Customers      int             `json:"customers"`
	Satisfaction   int             `json:"satisfaction"`
	MarketShare    float64         `json:"market_share"`
	MonopolyStatus bool            `json:"monopoly_status"`
}

type CompetitorShare struct {
	ID    int     `json:"id"`
	Share float64 `json:"share"`
}

type Shares struct {
	Player      float64           `json:"player"`
	Competitors []CompetitorShare `json:"competitors"`
}

type AcquisitionOffer struct {
	CompetitorID int             `json:"competitor_id"`
	Name         string          `json:"name"`
	Cost         decimal.Decimal `json:"cost"`
	Affordable   bool            `json:"affordable"`
}

type Snapshot struct {
	Settings       PlayerSettings     `json:"settings"`
	Stats          GameStats          `json:"stats"`
	Competitors    []Competitor       `json:"competitors"`
	Message        string             `json:"message"`
	Market         MarketStructure    `json:"market"`
	Rank           int                `json:"rank"`
	IsMarketLeader bool               `json:"is_market_leader"`
	Offers         []AcquisitionOffer `json:"offers"`
}

type EffectKind string

const (
	EffectFloatingIcons EffectKind = "floating_icons"
	EffectShake         EffectKind = "shake"
	EffectCelebrate     EffectKind = "celebrate"
)

type IconKind string

const (
	IconMoney    IconKind = "money"
	IconCustomer IconKind = "customer"
	IconStar     IconKind = "star"
)

const (
	FloatingIconsDuration = 2000 * time.Millisecond
	ShakeDuration         = 500 * time.Millisecond
	CelebrationDuration   = 3000 * time.Millisecond
)

// Event is a cosmetic cue emitted next to a state transition. Renderers may
// ignore it.
type Event struct {
	Kind     EffectKind    `json:"kind"`
	Icon     IconKind      `json:"icon,omitempty"`
	Count    int           `json:"count,omitempty"`
	Duration time.Duration `json:"duration"`
}

type RoundReport struct {
	Round             int     `json:"round"`
	Customers         int     `json:"customers"`
	Revenue           int64   `json:"revenue"`
	Costs             int64   `json:"costs"`
	Profit            int64   `json:"profit"`
	Satisfaction      int     `json:"satisfaction"`
	MarketShare       float64 `json:"market_share"`
	ActiveCompetitors int     `json:"active_competitors"`
}

type AcquisitionReport struct {
	CompetitorID     int             `json:"competitor_id"`
	Name             string          `json:"name"`
	Cost             decimal.Decimal `json:"cost"`
	ShareGained      float64         `json:"share_gained"`
	RemainingActive  int             `json:"remaining_active"`
	MonopolyAchieved bool            `json:"monopoly_achieved"`
}

// Outcome describes what a single command did. Applied is false for silent no-ops.
type Outcome struct {
	Applied     bool               `json:"applied"`
	MessageKind MessageKind        `json:"message_kind,omitempty"`
	Message     string             `json:"message,omitempty"`
	Notice      string             `json:"notice,omitempty"`
	Events      []Event            `json:"events,omitempty"`
	Round       *RoundReport       `json:"round,omitempty"`
	Acquisition *AcquisitionReport `json:"acquisition,omitempty"`
}
