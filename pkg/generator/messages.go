package generator

// User-facing text produced by the generator.
const (
	FallbackMessage = "發生錯誤，請稍後再試。"

	topicSystemPrompt = "你是一位擅長引發討論的聊天夥伴。請提出一個有趣、輕鬆、適合多人聊天的討論話題，" +
		"用一到兩句話描述，最後以一個開放式問題結尾。請使用繁體中文，不要加任何前言或編號。"
	topicUserPrompt = "請給我一個今天的討論話題。"
)
