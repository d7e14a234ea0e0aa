package intent

import "strings"

// InfoTopic is an informational subject with a canned tool answer.
type InfoTopic string

const (
	TopicWorkingHours   InfoTopic = "working_hours"
	TopicShipping       InfoTopic = "shipping"
	TopicRefund         InfoTopic = "refund"
	TopicFAQ            InfoTopic = "faq"
	TopicSupportContact InfoTopic = "support_contact"
)

// Keyword lists per topic, matched case-insensitively as substrings.
// Earlier topics win when a query mentions several.
var infoTopics = []struct {
	topic    InfoTopic
	keywords []string
}{
	{TopicWorkingHours, []string{
		"שעות פעילות", "שעות פתיחה", "מתי פתוח", "מתי אתם פתוחים",
		"working hours", "opening hours", "when are you open",
	}},
	{TopicShipping, []string{
		"משלוח", "משלוחים", "זמן אספקה", "כמה זמן לוקח",
		"shipping", "delivery time", "how long does",
	}},
	{TopicRefund, []string{
		"החזר", "זיכוי", "ביטול הזמנה", "לבטל",
		"refund", "cancel my order", "cancellation policy",
	}},
	{TopicSupportContact, []string{
		"נציג", "שירות לקוחות", "טלפון", "ליצור קשר",
		"representative", "contact support", "talk to a human", "phone number",
	}},
	{TopicFAQ, []string{
		"שאלות נפוצות", "faq",
	}},
}

// ClassifyInfo returns the first info topic whose keywords appear in the
// query, or false when none match.
func ClassifyInfo(query string) (InfoTopic, bool) {
	lower := strings.ToLower(query)
	for _, entry := range infoTopics {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.topic, true
			}
		}
	}
	return "", false
}
