// Package i18n holds every user-facing string the service emits.
// Components render templates by name and interpolate typed parameters;
// no prose is constructed inline anywhere else.
package i18n

import (
	"fmt"
	"unicode"
)

// Lang identifies a supported response language.
type Lang string

const (
	LangHebrew  Lang = "he"
	LangEnglish Lang = "en"
)

// TemplateID identifies a canned message template.
type TemplateID string

const (
	// Command responses.
	TemplateStart TemplateID = "start"
	TemplateHelp  TemplateID = "help"
	TemplateReset TemplateID = "reset"
	TemplateBye   TemplateID = "bye"

	// Stats and cache administration. Parameters are documented per template
	// in the table below.
	TemplateStats        TemplateID = "stats"
	TemplateCacheInfo    TemplateID = "cache_info"
	TemplateCacheCleared TemplateID = "cache_cleared"
	TemplateAdminOnly    TemplateID = "admin_only"

	// Pipeline fallbacks.
	TemplateNoContext      TemplateID = "no_context"
	TemplateTechnicalError TemplateID = "technical_error"
	TemplateRateLimited    TemplateID = "rate_limited"

	// Order flow.
	TemplateOrderLookup        TemplateID = "order_lookup"
	TemplateOrderNumberRequest TemplateID = "order_number_request"
	TemplateOrderNotFound      TemplateID = "order_not_found"
	TemplateOrderCheckFailed   TemplateID = "order_check_failed"

	// Generation prompt assembly.
	TemplatePrompt        TemplateID = "prompt"
	TemplatePromptSource  TemplateID = "prompt_source"
	TemplateConfidencePct TemplateID = "confidence_suffix"

	// Info tools.
	TemplateWorkingHours   TemplateID = "working_hours"
	TemplateShippingInfo   TemplateID = "shipping_info"
	TemplateRefundPolicy   TemplateID = "refund_policy"
	TemplateFAQ            TemplateID = "faq"
	TemplateSupportContact TemplateID = "support_contact"
)

// Confidence-tier markers prefixed to generated answers.
const (
	MarkerHighConfidence   = "✅"
	MarkerMediumConfidence = "⚠️"
	MarkerLowConfidence    = "❓"
)

var templates = map[TemplateID]map[Lang]string{
	TemplateStart: {
		LangHebrew: "👋 שלום! אני בוט שירות לקוחות חכם.\n\n" +
			"אני כאן כדי לענות על שאלות שלך.\n" +
			"פשוט שלח לי שאלה! 💬",
		LangEnglish: "👋 Hi! I'm a smart customer-support bot.\n\n" +
			"Send me a question and I'll do my best to answer. 💬",
	},
	TemplateHelp: {
		LangHebrew: "🤖 איך אני עובד?\n\n" +
			"1️⃣ אתה שולח שאלה\n" +
			"2️⃣ אני מחפש במאגר הידע\n" +
			"3️⃣ אני מייצר תשובה מדויקת\n\n" +
			"✅ = ביטחון גבוה\n⚠️ = ביטחון בינוני\n❓ = ביטחון נמוך",
		LangEnglish: "🤖 How I work:\n\n" +
			"1️⃣ You send a question\n" +
			"2️⃣ I search the knowledge base\n" +
			"3️⃣ I generate a grounded answer\n\n" +
			"✅ = high confidence\n⚠️ = medium confidence\n❓ = low confidence",
	},
	TemplateReset: {
		LangHebrew:  "🔄 השיחה אופסה!",
		LangEnglish: "🔄 Conversation reset!",
	},
	TemplateBye: {
		LangHebrew:  "🛑 הבוט עומד להיסגר. תודה שהשתמשת בשירות!",
		LangEnglish: "🛑 The bot is shutting down. Thanks for using the service!",
	},

	// Parameters: user id, conversation status, model, hit rate %, hits,
	// misses, size, capacity.
	TemplateStats: {
		LangEnglish: "📊 *Stats*\n\n" +
			"👤 User ID: `%s`\n💬 Conversation: %s\n🤖 Model: %s\n\n" +
			"💾 Cache Stats:\n• Hit Rate: %.1f%%\n• Hits: %d\n• Misses: %d\n• Size: %d/%d\n\n" +
			"_Cache helps reduce API costs!_",
	},
	// Parameters: hits, misses, size, capacity, hit rate %, estimated savings.
	TemplateCacheInfo: {
		LangEnglish: "💾 *Cache Management*\n\n" +
			"Current Stats:\n• Total Hits: %d\n• Total Misses: %d\n• Cache Size: %d/%d\n• Hit Rate: %.1f%%\n\n" +
			"Cost Savings:\n• Estimated Savings: $%.2f",
	},
	TemplateCacheCleared: {
		LangEnglish: "🗑️ Cache cleared successfully!",
	},
	TemplateAdminOnly: {
		LangEnglish: "⛔ Admin only command",
	},

	TemplateNoContext: {
		LangHebrew: "לא מצאתי מידע על זה במאגר הידע שלי 📚\n" +
			"האם תוכל לנסח את השאלה אחרת?\n" +
			"או צור קשר עם נציג: support@company.com",
		LangEnglish: "I couldn't find anything about that in my knowledge base 📚\n" +
			"Could you rephrase the question?\n" +
			"Or contact a representative: support@company.com",
	},
	TemplateTechnicalError: {
		LangHebrew: "אופס! משהו השתבש מצידי 🔧\n" +
			"הצוות הטכני קיבל התראה.\n\n" +
			"בינתיים, נסה:\n📧 Email: support@company.com\n📞 Phone: 03-1234567",
		LangEnglish: "Oops! Something went wrong on my side 🔧\n" +
			"The technical team has been alerted.\n\n" +
			"In the meantime:\n📧 Email: support@company.com\n📞 Phone: 03-1234567",
	},
	TemplateRateLimited: {
		LangHebrew:  "קיבלתי יותר מדי בקשות ברגע זה 🚦\nהמתן 10 שניות ונסה שוב.",
		LangEnglish: "I'm getting too many requests right now 🚦\nWait a few seconds and try again.",
	},

	// Parameter: order number as extracted, including any prefix.
	TemplateOrderLookup: {
		LangHebrew: "🔍 מאתר את ההזמנה **%s**...\n\n" +
			"• סטטוס: בדרך אליך 📦\n• משלוח משוער: 2-3 ימים\n• מספר מעקב: IL-%s\n\n" +
			"🔔 תקבל עדכון SMS כשההזמנה תגיע לנקודת החלוקה.",
		LangEnglish: "🔍 Looking up order **%s**...\n\n" +
			"• Status: on its way 📦\n• Estimated delivery: 2-3 days\n• Tracking: IL-%s\n\n" +
			"🔔 You'll get an SMS update when the order reaches the pickup point.",
	},
	TemplateOrderNumberRequest: {
		LangHebrew: "📝 כדי לעזור לך עם ההזמנה, אני צריך את **מספר ההזמנה**.\n\n" +
			"איפה למצוא אותו?\n✉️ במייל אישור ההזמנה\n📱 באפליקציה בלשונית 'ההזמנות שלי'\n\n" +
			"💡 פורמט: ORD-12345 או #12345 או 12345\n\n" +
			"👉 **שלח לי את מספר ההזמנה עכשיו:**",
		LangEnglish: "📝 To help with your order I need the **order number**.\n\n" +
			"Where to find it:\n✉️ In the order confirmation email\n📱 In the app under 'My Orders'\n\n" +
			"💡 Format: ORD-12345, #12345 or 12345\n\n" +
			"👉 **Send me the order number now:**",
	},
	// Parameter: cleaned order id.
	TemplateOrderNotFound: {
		LangHebrew: "❌ הזמנה מספר %s לא נמצאה במערכת.\n" +
			"אנא ודא שהמספר נכון או פנה לשירות הלקוחות:\n📧 support@company.com\n📞 03-1234567",
		LangEnglish: "❌ Order %s was not found in the system.\n" +
			"Please verify the number or contact customer support:\n📧 support@company.com\n📞 03-1234567",
	},
	// Parameter: order id.
	TemplateOrderCheckFailed: {
		LangHebrew:  "😔 מצטער, נתקלתי בבעיה בבדיקת ההזמנה %s.\nאנא נסה שוב או פנה לשירות הלקוחות.",
		LangEnglish: "😔 Sorry, I ran into a problem checking order %s.\nPlease try again or contact customer support.",
	},

	// Parameters: concatenated labeled sources, original query.
	TemplatePrompt: {
		LangHebrew: "אתה עוזר שירות לקוחות. ענה על שאלת הלקוח בהתבסס **רק** על ההקשר הבא.\n" +
			"אם התשובה לא נמצאת בהקשר, אמור שאין לך את המידע הזה.\n\n" +
			"הקשר:\n%s\n\nשאלת לקוח: %s\n\nתשובה (ידידותית):",
	},
	// Parameters: 1-based source index, source content.
	TemplatePromptSource: {
		LangHebrew: "מקור %d:\n%s",
	},
	// Parameter: confidence percentage.
	TemplateConfidencePct: {
		LangEnglish: "\n\n_Confidence: %d%%_",
	},

	TemplateWorkingHours: {
		LangHebrew:  "שעות הפעילות שלנו: א'-ה' 09:00-18:00. יום ו' וערבי חג: 09:00-13:00.",
		LangEnglish: "Opening hours: Sunday-Thursday 09:00-18:00, Friday & holidays: 09:00-13:00.",
	},
	TemplateShippingInfo: {
		LangHebrew:  "משלוחים לכל הארץ תוך 2-5 ימי עסקים.",
		LangEnglish: "Delivery in Israel within 2-5 business days.",
	},
	TemplateRefundPolicy: {
		LangHebrew:  "מדיניות זיכויים: ניתן לבטל הזמנה עד 24 שעות לפני מועד המשלוח.",
		LangEnglish: "Refunds: You may cancel an order up to 24 hours before delivery.",
	},
	TemplateFAQ: {
		LangHebrew:  "נשמח לעזור! שאלות נפוצות: ביטול, החזרות, משלוח, תשלום.",
		LangEnglish: "FAQ: Cancellation, returns, shipping, payment.",
	},
	TemplateSupportContact: {
		LangHebrew:  "צור קשר עם שירות לקוחות: 📞 03-1234567 | 📧 support@company.com",
		LangEnglish: "Customer support: 📞 03-1234567 | 📧 support@company.com",
	},
}

// Render formats the template in the requested language, falling back to the
// other language when a translation is missing. Unknown template IDs render
// as the technical-error fallback so a missing table entry can never reach
// the user as an empty message.
func Render(id TemplateID, lang Lang, args ...any) string {
	byLang, ok := templates[id]
	if !ok {
		byLang = templates[TemplateTechnicalError]
		args = nil
	}

	format, ok := byLang[lang]
	if !ok {
		if lang == LangHebrew {
			format = byLang[LangEnglish]
		} else {
			format = byLang[LangHebrew]
		}
	}

	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Marker returns the confidence-tier marker for the given thresholds.
func Marker(confidence, high, medium float64) string {
	switch {
	case confidence >= high:
		return MarkerHighConfidence
	case confidence >= medium:
		return MarkerMediumConfidence
	default:
		return MarkerLowConfidence
	}
}

// DetectLang classifies text as Hebrew when it contains any Hebrew-script
// rune, English otherwise. Matches the original behavior of defaulting to
// Hebrew only on positive detection.
func DetectLang(text string) Lang {
	for _, r := range text {
		if unicode.Is(unicode.Hebrew, r) {
			return LangHebrew
		}
	}
	return LangEnglish
}
