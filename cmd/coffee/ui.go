package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	cl "coffeemarket/internal/cli"
	"coffeemarket/internal/game"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

// promptInt64 asks for a whole number in [min, max]; an empty answer keeps current.
func promptInt64(label string, current, min, max int64) (int64, error) {
	for {
		fmt.Printf("%s (%d-%d) [%d]: ", label, min, max, current)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return current, nil
		}
		v, err := strconv.ParseInt(strings.ReplaceAll(text, ".", ""), 10, 64)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min || v > max {
			printWarn(fmt.Sprintf("Value must be between %d and %d", min, max))
			continue
		}
		return v, nil
	}
}

func promptSettings(current game.PlayerSettings) (game.PlayerSettings, error) {
	price, err := promptInt64("Giá bán (đ)", current.Price, game.MinPrice, game.MaxPrice)
	if err != nil {
		return current, err
	}
	quality, err := promptInt64("Chất lượng (%)", int64(current.Quality), game.MinQuality, game.MaxQuality)
	if err != nil {
		return current, err
	}
	marketing, err := promptInt64("Quảng cáo (%)", int64(current.Marketing), game.MinMarketing, game.MaxMarketing)
	if err != nil {
		return current, err
	}
	return game.PlayerSettings{Price: price, Quality: int(quality), Marketing: int(marketing)}.Clamp(), nil
}

func renderSnapshot(s game.Snapshot) {
	accent.Printf("\n== THỊ TRƯỜNG CÀ PHÊ · Vòng %d ==\n", s.Stats.Round)
	fmt.Printf("Tiền:         %s\n", colorizeMoney(s.Stats.Money))
	fmt.Printf("Thị trường:   %s\n", severityColor(s.Market.Severity).Sprintf("%s %s", s.Market.Icon, s.Market.Label))
	if s.Stats.MonopolyStatus {
		danger.Println("              👑 ĐỘC QUYỀN")
	}
	fmt.Printf("Khách hàng:   %d\n", s.Stats.Customers)
	fmt.Printf("Thị phần:     %.1f%%\n", s.Stats.MarketShare)
	fmt.Printf("Hài lòng:     %s\n", colorizeSatisfaction(s.Stats.Satisfaction))
	rank := fmt.Sprintf("#%d", s.Rank)
	if s.IsMarketLeader {
		rank += " 🏆"
	}
	fmt.Printf("Xếp hạng:     %s\n", rank)
	fmt.Printf("Cài đặt:      giá %s · chất lượng %d%% · quảng cáo %d%%\n",
		formatVND(decimal.NewFromInt(s.Settings.Price)), s.Settings.Quality, s.Settings.Marketing)

	fmt.Println()
	accent.Println("Đối thủ")
	fmt.Printf("%-3s %-18s %8s %12s %8s %8s %-10s\n", "ID", "TÊN", "THỊ PHẦN", "GIÁ", "CL", "QC", "TRẠNG THÁI")
	for _, c := range s.Competitors {
		status := success.Sprint("hoạt động")
		if !c.Active {
			status = danger.Sprint("đã mua lại")
		} else if c.MarketShare > s.Stats.MarketShare {
			status = warn.Sprint("dẫn đầu")
		}
		fmt.Printf("%-3d %-18s %7.1f%% %12s %7d%% %7d%% %s\n",
			c.ID, truncate(c.Name, 18), c.MarketShare, formatVND(decimal.NewFromInt(c.Price)), c.Quality, c.Marketing, status)
	}
	if strings.TrimSpace(s.Message) != "" {
		fmt.Println()
		printInfo(s.Message)
	}
	fmt.Println()
}

func renderOffers(offers []game.AcquisitionOffer) {
	accent.Println("\n== MUA LẠI ĐỐI THỦ ==")
	if len(offers) == 0 {
		printInfo("Không còn đối thủ nào để mua lại.")
		return
	}
	fmt.Printf("%-3s %-18s %16s %s\n", "ID", "TÊN", "GIÁ MUA", "")
	for _, o := range offers {
		state := success.Sprint("✅ Mua lại")
		if !o.Affordable {
			state = danger.Sprint("❌ Không đủ tiền")
		}
		fmt.Printf("%-3d %-18s %16s %s\n", o.CompetitorID, truncate(o.Name, 18), formatVND(o.Cost), state)
	}
	fmt.Println()
}

func renderMarket(v cl.MarketView) {
	accent.Println("\n== CẤU TRÚC THỊ TRƯỜNG ==")
	fmt.Printf("Loại:     %s\n", severityColor(v.Market.Severity).Sprintf("%s %s", v.Market.Icon, v.Market.Label))
	fmt.Printf("Đối thủ:  %d đang hoạt động\n", v.Market.ActiveCompetitors)
	fmt.Printf("Xếp hạng: #%d\n", v.Rank)
	renderOffers(v.Offers)
}

func renderOutcome(out game.Outcome) {
	if out.Notice != "" {
		printWarn(out.Notice)
	}
	if r := out.Round; r != nil {
		accent.Printf("\n== KẾT QUẢ VÒNG %d ==\n", r.Round)
		fmt.Printf("Khách hàng: %d\n", r.Customers)
		fmt.Printf("Doanh thu:  %s\n", formatVND(decimal.NewFromInt(r.Revenue)))
		fmt.Printf("Chi phí:    %s\n", formatVND(decimal.NewFromInt(r.Costs)))
		fmt.Printf("Lợi nhuận:  %s\n", colorizeMoney(decimal.NewFromInt(r.Profit)))
	}
	if a := out.Acquisition; a != nil {
		fmt.Printf("Đã trả %s cho %s (+%.1f%% thị phần)\n", formatVND(a.Cost), a.Name, a.ShareGained)
	}
	if out.Message != "" {
		if out.MessageKind == game.MessageMonopolyRound || out.MessageKind == game.MessageOligopolyRound {
			printWarn(out.Message)
		} else {
			printSuccess(out.Message)
		}
	}
	if cues := cueLine(out.Events); cues != "" {
		fmt.Println(cues)
	}
}

func cueLine(events []game.Event) string {
	var parts []string
	for _, e := range events {
		switch e.Kind {
		case game.EffectFloatingIcons:
			parts = append(parts, strings.Repeat(iconGlyph(e.Icon), e.Count))
		case game.EffectCelebrate:
			parts = append(parts, "🎉🎊🎉")
		case game.EffectShake:
			parts = append(parts, "〰️")
		}
	}
	return strings.Join(parts, " ")
}

func iconGlyph(icon game.IconKind) string {
	switch icon {
	case game.IconMoney:
		return "💰"
	case game.IconCustomer:
		return "👥"
	case game.IconStar:
		return "⭐"
	default:
		return "•"
	}
}

func severityColor(s game.Severity) *color.Color {
	switch s {
	case game.SeverityCritical:
		return danger
	case game.SeverityWarning:
		return warn
	case game.SeverityCaution:
		return color.New(color.FgHiYellow)
	default:
		return success
	}
}

func colorizeMoney(v decimal.Decimal) string {
	text := formatVND(v)
	switch v.Sign() {
	case 1:
		return success.Sprint(text)
	case -1:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeSatisfaction(v int) string {
	text := fmt.Sprintf("%d%%", v)
	switch {
	case v >= 60:
		return success.Sprint(text)
	case v >= 40:
		return warn.Sprint(text)
	default:
		return danger.Sprint(text)
	}
}

// formatVND renders whole đồng with vi-VN digit grouping, e.g. "35.000 đ".
func formatVND(v decimal.Decimal) string {
	whole := v.Round(0).IntPart()
	sign := ""
	if whole < 0 {
		sign = "-"
		whole = -whole
	}
	return sign + groupDigits(whole) + " đ"
}

func groupDigits(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte('.')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
