package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	StartingMoney        = int64(10_000)
	StartingSatisfaction = 70
	StartingMarketShare  = 25.0

	TotalMarketCustomers = 1000

	FixedOverhead         = int64(3000)
	QualityCostPerPoint   = int64(100)
	MarketingCostPerPoint = int64(50)

	MinPrice     = int64(20_000)
	MaxPrice     = int64(60_000)
	PriceStep    = int64(1000)
	MinQuality   = 30
	MaxQuality   = 100
	MinMarketing = 0
	MaxMarketing = 100

	LowPriceThreshold    = int64(25_000)
	HighQualityThreshold = 80

	MonopolyDamping  = 0.6
	OligopolyDamping = 0.8

	CompetitorPriceFloor  = int64(25_000)
	CompetitorPriceCut    = int64(2000)
	CompetitorQualityStep = 5
	CompetitorQualityCap  = 100

	ProfitPerRewardIcon = int64(2000)
	MaxRewardIcons      = 8
	StrategyIcons       = 5

	AcquisitionMoneyMultiple = int64(2)
	AcquisitionSharePrice    = int64(500)

	// Totals at or below this are treated as a market with no signal.
	minTotalScore = 1e-9
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionLimit      = errors.New("session limit reached")
)

// Score rates a (price, quality, marketing) offer. Prices above 50000 make the
// price term negative.
func Score(price int64, quality, marketing int) float64 {
	return (100-float64(price)/500)*0.4 + float64(quality)*0.35 + float64(marketing)*0.25
}

func (p PlayerSettings) Score() float64 {
	return Score(p.Price, p.Quality, p.Marketing)
}

func (c Competitor) Score() float64 {
	return Score(c.Price, c.Quality, c.Marketing)
}

// ComputeShares normalizes the player's and every active competitor's score into
// percentages of the total. Inactive competitors are skipped. Negative scores,
// only reachable outside the slider ranges, count as zero so no share goes
// below 0.
func ComputeShares(player PlayerSettings, competitors []Competitor) Shares {
	playerScore := math.Max(0, player.Score())
	total := playerScore
	active := make([]CompetitorShare, 0, len(competitors))
	scores := make([]float64, 0, len(competitors))
	for _, c := range competitors {
		if !c.Active {
			continue
		}
		s := math.Max(0, c.Score())
		total += s
		active = append(active, CompetitorShare{ID: c.ID})
		scores = append(scores, s)
	}

	if total <= minTotalScore {
		even := 100 / float64(len(active)+1)
		for i := range active {
			active[i].Share = even
		}
		return Shares{Player: even, Competitors: active}
	}

	for i := range active {
		active[i].Share = scores[i] / total * 100
	}
	return Shares{Player: playerScore / total * 100, Competitors: active}
}

func CustomersForShare(share float64) int {
	return int(math.Floor(share / 100 * TotalMarketCustomers))
}

func OperatingCosts(p PlayerSettings) int64 {
	return int64(p.Quality)*QualityCostPerPoint + int64(p.Marketing)*MarketingCostPerPoint + FixedOverhead
}

// BaseSatisfaction is the undamped customer satisfaction for a price/quality pair.
func BaseSatisfaction(p PlayerSettings) float64 {
	priceImpact := math.Max(0, 100-float64(p.Price)/500)
	return priceImpact*0.4 + float64(p.Quality)*0.6
}

func SatisfactionDamping(activeCompetitors int) float64 {
	switch activeCompetitors {
	case 0:
		return MonopolyDamping
	case 1:
		return OligopolyDamping
	default:
		return 1
	}
}

func RewardIcons(profit int64) int {
	if profit <= 0 {
		return 0
	}
	n := profit / ProfitPerRewardIcon
	if n > MaxRewardIcons {
		return MaxRewardIcons
	}
	return int(n)
}

func AcquisitionCost(c Competitor) decimal.Decimal {
	return c.Money.Mul(decimal.NewFromInt(AcquisitionMoneyMultiple)).
		Add(decimal.NewFromFloat(c.MarketShare).Mul(decimal.NewFromInt(AcquisitionSharePrice)))
}

// Validate checks the settings against the slider ranges. The engine itself
// accepts any settings.
func (p PlayerSettings) Validate() error {
	if p.Price < MinPrice || p.Price > MaxPrice {
		return fmt.Errorf("%w: price must be between %d and %d", ErrInvalidSettings, MinPrice, MaxPrice)
	}
	if p.Price%PriceStep != 0 {
		return fmt.Errorf("%w: price must be a multiple of %d", ErrInvalidSettings, PriceStep)
	}
	if p.Quality < MinQuality || p.Quality > MaxQuality {
		return fmt.Errorf("%w: quality must be between %d and %d", ErrInvalidSettings, MinQuality, MaxQuality)
	}
	if p.Marketing < MinMarketing || p.Marketing > MaxMarketing {
		return fmt.Errorf("%w: marketing must be between %d and %d", ErrInvalidSettings, MinMarketing, MaxMarketing)
	}
	return nil
}

// Clamp snaps the settings onto the slider ranges, rounding price to the nearest step.
func (p PlayerSettings) Clamp() PlayerSettings {
	price := (p.Price + PriceStep/2) / PriceStep * PriceStep
	return PlayerSettings{
		Price:     clampInt64(price, MinPrice, MaxPrice),
		Quality:   clampInt(p.Quality, MinQuality, MaxQuality),
		Marketing: clampInt(p.Marketing, MinMarketing, MaxMarketing),
	}
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
