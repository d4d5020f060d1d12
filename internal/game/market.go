package game

type MarketKind string

const (
	MarketMonopoly             MarketKind = "monopoly"
	MarketOligopoly            MarketKind = "oligopoly"
	MarketImperfectCompetition MarketKind = "imperfect_competition"
	MarketPerfectCompetition   MarketKind = "perfect_competition"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityCaution  Severity = "caution"
	SeverityHealthy  Severity = "healthy"
)

type MarketStructure struct {
	Kind              MarketKind `json:"kind"`
	Label             string     `json:"label"`
	Icon              string     `json:"icon"`
	Severity          Severity   `json:"severity"`
	ActiveCompetitors int        `json:"active_competitors"`
}

func ClassifyMarket(activeCompetitors int) MarketStructure {
	m := MarketStructure{ActiveCompetitors: activeCompetitors}
	switch {
	case activeCompetitors <= 0:
		m.Kind, m.Label, m.Icon, m.Severity = MarketMonopoly, "Độc quyền", "👑", SeverityCritical
	case activeCompetitors == 1:
		m.Kind, m.Label, m.Icon, m.Severity = MarketOligopoly, "Độc quyền nhóm", "⚠️", SeverityWarning
	case activeCompetitors == 2:
		m.Kind, m.Label, m.Icon, m.Severity = MarketImperfectCompetition, "Cạnh tranh không hoàn hảo", "📊", SeverityCaution
	default:
		m.Kind, m.Label, m.Icon, m.Severity = MarketPerfectCompetition, "Cạnh tranh hoàn hảo", "✅", SeverityHealthy
	}
	return m
}
