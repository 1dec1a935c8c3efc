package handlers

import (
	"github.com/yungbote/barista-backend/internal/modules/ordering"
	"github.com/yungbote/barista-backend/internal/platform/apierr"
)

// turnAPIError maps ordering error kinds onto HTTP statuses.
func turnAPIError(err error) *apierr.Error {
	switch ordering.KindOf(err) {
	case ordering.KindEmptyMessage:
		return apierr.BadRequest("empty_message", err)
	case ordering.KindConversationNotFound:
		return apierr.NotFound("conversation_not_found", err)
	case ordering.KindValidation:
		return apierr.Unprocessable("validation_failed", err)
	default:
		return apierr.Internal("internal_error", err)
	}
}
