package game

import "fmt"

type MessageKind string

const (
	MessageMonopolyRound     MessageKind = "monopoly_round"
	MessageOligopolyRound    MessageKind = "oligopoly_round"
	MessageLowPrice          MessageKind = "low_price"
	MessageHighQuality       MessageKind = "high_quality"
	MessageHealthy           MessageKind = "healthy_competition"
	MessageAcquired          MessageKind = "acquired"
	MessageMonopolyAchieved  MessageKind = "monopoly_achieved"
	MessageInsufficientFunds MessageKind = "insufficient_funds"
)

// Bundled vi-VN copy.
var messages = map[MessageKind]string{
	MessageMonopolyRound:     "⚠️ Bạn đang độc quyền thị trường! Lợi nhuận cao nhưng khách hàng không hài lòng.",
	MessageOligopolyRound:    "📊 Thị trường đang thiếu cạnh tranh. Khách hàng bắt đầu bất mãn.",
	MessageLowPrice:          "💰 Chiến lược giá thấp thành công! Thị phần tăng mạnh.",
	MessageHighQuality:       "⭐ Chất lượng cao được đánh giá cao! Khách hàng trung thành.",
	MessageHealthy:           "📈 Cạnh tranh lành mạnh. Thị trường đang phát triển tốt.",
	MessageAcquired:          "✅ Đã mua lại %s! Thị phần của bạn tăng lên.",
	MessageMonopolyAchieved:  "🏆 Bạn đã độc quyền thị trường! Lợi nhuận tối đa nhưng hãy coi chừng phản ứng của khách hàng.",
	MessageInsufficientFunds: "❌ Không đủ tiền để mua lại đối thủ này!",
}

func Message(kind MessageKind, args ...any) string {
	text, ok := messages[kind]
	if !ok {
		return ""
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
