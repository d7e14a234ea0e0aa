package agent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hadasco/deskrag/internal/i18n"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/store"
)

func infoTemplate(topic intent.InfoTopic) i18n.TemplateID {
	switch topic {
	case intent.TopicWorkingHours:
		return i18n.TemplateWorkingHours
	case intent.TopicShipping:
		return i18n.TemplateShippingInfo
	case intent.TopicRefund:
		return i18n.TemplateRefundPolicy
	case intent.TopicFAQ:
		return i18n.TemplateFAQ
	case intent.TopicSupportContact:
		return i18n.TemplateSupportContact
	}
	return i18n.TemplateFAQ
}

// handleOrder runs the order route. A query without a number first falls
// back to the last order id the user asked about; only when that is also
// missing does the user enter the awaiting-order-number state.
func (a *SupportAgent) handleOrder(ctx context.Context, query, userID string) rag.AnswerResult {
	lang := i18n.DetectLang(query)

	message, number, waiting := a.detector.HandleOrderQuery(query, userID)
	if waiting {
		if remembered, ok := a.lastOrderID(userID); ok {
			a.detector.ClearWaitingState(userID)
			return rag.AnswerResult{
				Answer:     a.lookupOrder(ctx, lang, remembered, remembered),
				Confidence: 1.0,
				Status:     rag.StatusOrderHandled,
			}
		}
		return rag.AnswerResult{
			Answer: message,
			Status: rag.StatusOrderWaiting,
		}
	}

	clean := intent.CleanOrderNumber(number)
	a.state.Save(userID, memoryKeyLastOrder, clean)

	answer := message
	if a.orders != nil {
		answer = a.lookupOrder(ctx, lang, number, clean)
	}
	return rag.AnswerResult{
		Answer:     answer,
		Confidence: 1.0,
		Status:     rag.StatusOrderHandled,
	}
}

// lookupOrder resolves an order id against the order store. When no store
// is wired the canned lookup response is used instead.
func (a *SupportAgent) lookupOrder(ctx context.Context, lang i18n.Lang, raw, clean string) string {
	if a.orders == nil {
		return i18n.Render(i18n.TemplateOrderLookup, lang, raw, clean)
	}

	order, err := a.orders.GetOrder(ctx, clean)
	switch {
	case err == nil:
		tracking := order.TrackingID
		if tracking == "" {
			tracking = clean
		}
		return i18n.Render(i18n.TemplateOrderLookup, lang, raw, tracking)
	case errors.Is(err, store.ErrOrderNotFound):
		return i18n.Render(i18n.TemplateOrderNotFound, lang, clean)
	default:
		a.logger.Error("order lookup failed", "order_id", clean, "error", err)
		return i18n.Render(i18n.TemplateOrderCheckFailed, lang, clean)
	}
}

func (a *SupportAgent) lastOrderID(userID string) (string, bool) {
	value, ok := a.state.Get(userID, memoryKeyLastOrder)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
