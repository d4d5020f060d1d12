package main

import (
	"fmt"
	"strings"
	"time"

	"coffeemarket/internal/game"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type slider int

const (
	sliderPrice slider = iota
	sliderQuality
	sliderMarketing
	sliderCount
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Round   key.Binding
	Acquire key.Binding
	Pick    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Round, k.Acquire, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Round, k.Acquire, k.Pick},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous slider")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next slider")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
	Round:   key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter/r", "play round")),
	Acquire: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "acquisitions")),
	Pick:    key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "acquire competitor")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C8A27A")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6F4E37")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5DEB3"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	messageStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("229"))
)

func severityStyle(s game.Severity) lipgloss.Style {
	switch s {
	case game.SeverityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	case game.SeverityWarning:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	case game.SeverityCaution:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	}
}

// effectDoneMsg expires the cues of one transition. gen ties it to the
// transition that scheduled it so stale timers are ignored.
type effectDoneMsg struct {
	gen  int
	kind game.EffectKind
}

type tuiModel struct {
	sess      *game.Session
	focus     slider
	acquiring bool
	notice    string
	effects   []game.Event
	gen       int
	help      help.Model
	bar       progress.Model
}

func newTUIModel(sess *game.Session) tuiModel {
	return tuiModel{
		sess: sess,
		help: help.New(),
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage()),
	}
}

func runTUI(sess *game.Session) error {
	_, err := tea.NewProgram(newTUIModel(sess), tea.WithAltScreen()).Run()
	return err
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case effectDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		kept := m.effects[:0]
		for _, e := range m.effects {
			if e.Kind != msg.kind {
				kept = append(kept, e)
			}
		}
		m.effects = kept
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.acquiring && msg.String() == "esc" {
			m.acquiring = false
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Acquire):
		if m.sess.ActiveCount() == 0 {
			m.notice = "Không còn đối thủ nào để mua lại."
			return m, nil
		}
		m.acquiring = !m.acquiring
		m.notice = ""
	case m.acquiring && key.Matches(msg, keys.Pick):
		id := int(msg.String()[0] - '0')
		out, err := m.sess.Apply(game.Acquire{CompetitorID: id})
		if err != nil {
			m.notice = out.Notice
			return m, nil
		}
		if !out.Applied {
			return m, nil
		}
		m.notice = ""
		m.acquiring = false
		return m, m.startEffects(out.Events)
	case key.Matches(msg, keys.Round):
		out, err := m.sess.Apply(game.PlayRound{})
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		return m, m.startEffects(out.Events)
	case key.Matches(msg, keys.Up):
		m.focus = (m.focus + sliderCount - 1) % sliderCount
	case key.Matches(msg, keys.Down):
		m.focus = (m.focus + 1) % sliderCount
	case key.Matches(msg, keys.Left):
		m.nudge(-1)
	case key.Matches(msg, keys.Right):
		m.nudge(1)
	}
	return m, nil
}

// nudge moves the focused slider one step and commits the new settings.
func (m *tuiModel) nudge(dir int) {
	p := m.sess.Settings
	switch m.focus {
	case sliderPrice:
		p.Price += int64(dir) * game.PriceStep
	case sliderQuality:
		p.Quality += dir
	case sliderMarketing:
		p.Marketing += dir
	}
	m.sess.SetSettings(p.Clamp())
}

// startEffects replaces the active cues and schedules their expiry.
func (m *tuiModel) startEffects(events []game.Event) tea.Cmd {
	m.gen++
	m.effects = append([]game.Event(nil), events...)
	if len(events) == 0 {
		return nil
	}
	gen := m.gen
	cmds := make([]tea.Cmd, 0, len(events))
	for _, e := range events {
		kind := e.Kind
		cmds = append(cmds, tea.Tick(e.Duration, func(time.Time) tea.Msg {
			return effectDoneMsg{gen: gen, kind: kind}
		}))
	}
	return tea.Batch(cmds...)
}

func (m tuiModel) shaking() bool {
	for _, e := range m.effects {
		if e.Kind == game.EffectShake {
			return true
		}
	}
	return false
}

func (m tuiModel) View() string {
	snap := m.sess.Snapshot()

	header := titleStyle.Render(fmt.Sprintf("☕ THỊ TRƯỜNG CÀ PHÊ · Vòng %d", snap.Stats.Round))
	market := severityStyle(snap.Market.Severity).Render(fmt.Sprintf("%s %s", snap.Market.Icon, snap.Market.Label))
	if snap.Stats.MonopolyStatus {
		market += "  " + badStyle.Render("👑 ĐỘC QUYỀN")
	}

	stats := panelStyle.Render(strings.Join([]string{
		labelStyle.Render("Tiền       ") + moneyStyle(snap.Stats.Money).Render(formatVND(snap.Stats.Money)),
		labelStyle.Render("Khách hàng ") + fmt.Sprintf("%d", snap.Stats.Customers),
		labelStyle.Render("Thị phần   ") + fmt.Sprintf("%.1f%%", snap.Stats.MarketShare),
		labelStyle.Render("Hài lòng   ") + fmt.Sprintf("%d%%", snap.Stats.Satisfaction),
		labelStyle.Render("Xếp hạng   ") + rankText(snap),
	}, "\n"))
	if m.shaking() {
		stats = lipgloss.NewStyle().MarginLeft(2).Render(stats)
	}

	sliders := panelStyle.Render(strings.Join([]string{
		m.sliderLine(sliderPrice, "Giá bán   ", formatVND(decimal.NewFromInt(snap.Settings.Price)),
			float64(snap.Settings.Price-game.MinPrice)/float64(game.MaxPrice-game.MinPrice)),
		m.sliderLine(sliderQuality, "Chất lượng", fmt.Sprintf("%d%%", snap.Settings.Quality),
			float64(snap.Settings.Quality-game.MinQuality)/float64(game.MaxQuality-game.MinQuality)),
		m.sliderLine(sliderMarketing, "Quảng cáo ", fmt.Sprintf("%d%%", snap.Settings.Marketing),
			float64(snap.Settings.Marketing-game.MinMarketing)/float64(game.MaxMarketing-game.MinMarketing)),
		strategyLine(snap.Settings),
	}, "\n"))

	sections := []string{
		header,
		market,
		lipgloss.JoinHorizontal(lipgloss.Top, stats, sliders),
		m.competitorPanel(snap),
	}
	if m.acquiring {
		sections = append(sections, m.acquisitionPanel(snap))
	}
	if snap.Message != "" {
		sections = append(sections, messageStyle.Render(snap.Message))
	}
	if m.notice != "" {
		sections = append(sections, badStyle.Render(m.notice))
	}
	if cues := cueLine(m.effects); cues != "" {
		sections = append(sections, cues)
	}
	sections = append(sections, m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m tuiModel) sliderLine(s slider, label, value string, frac float64) string {
	name := labelStyle.Render(label)
	if m.focus == s {
		name = focusStyle.Render("▸ " + label)
	} else {
		name = "  " + name
	}
	return fmt.Sprintf("%s %s %s", name, m.bar.ViewAs(frac), value)
}

func (m tuiModel) competitorPanel(snap game.Snapshot) string {
	lines := []string{titleStyle.Render("Đối thủ")}
	lines = append(lines, fmt.Sprintf("  %-18s %s %5.1f%%", "Bạn", m.bar.ViewAs(snap.Stats.MarketShare/100), snap.Stats.MarketShare))
	for _, c := range snap.Competitors {
		if !c.Active {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d %-18s đã mua lại", c.ID, truncate(c.Name, 18))))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d %-18s %s %5.1f%%  %s · CL %d%% · QC %d%%",
			c.ID, truncate(c.Name, 18), m.bar.ViewAs(c.MarketShare/100), c.MarketShare,
			formatVND(decimal.NewFromInt(c.Price)), c.Quality, c.Marketing))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) acquisitionPanel(snap game.Snapshot) string {
	lines := []string{titleStyle.Render("🏢 Mua lại đối thủ")}
	for _, o := range snap.Offers {
		state := goodStyle.Render("✅ Mua lại")
		if !o.Affordable {
			state = badStyle.Render("❌ Không đủ tiền")
		}
		lines = append(lines, fmt.Sprintf("[%d] %-18s %16s  %s", o.CompetitorID, truncate(o.Name, 18), formatVND(o.Cost), state))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func strategyLine(p game.PlayerSettings) string {
	stars := func(v int) string {
		n := v * game.StrategyIcons / 100
		return strings.Repeat("⭐", n) + strings.Repeat("·", game.StrategyIcons-n)
	}
	return labelStyle.Render("  CL ") + stars(p.Quality) + labelStyle.Render("  QC ") + stars(p.Marketing)
}

func rankText(snap game.Snapshot) string {
	if snap.IsMarketLeader {
		return goodStyle.Render(fmt.Sprintf("#%d 🏆", snap.Rank))
	}
	return fmt.Sprintf("#%d", snap.Rank)
}

func moneyStyle(v decimal.Decimal) lipgloss.Style {
	if v.IsNegative() {
		return badStyle
	}
	return goodStyle
}
