package handler

import "strings"

// Phrases that request a fresh conversation topic instead of a reply.
var topicTriggers = []string{
	"話題",
	"新話題",
	"給我一個話題",
	"topic",
	"new topic",
	"give me a topic",
}

const greetingTemplate = "%s，歡迎加入！"

func isTopicRequest(text string) bool {
	text = strings.TrimSpace(text)
	for _, trigger := range topicTriggers {
		if strings.EqualFold(text, trigger) {
			return true
		}
	}
	return false
}
