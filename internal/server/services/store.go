package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/logging"
)

// storeContext bounds a single store interaction.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// internalError logs the cause and returns an Internal error whose message
// is safe to show to callers.
func internalError(ctx context.Context, log logging.Logger, op string, err error) error {
	log.Error(ctx, op+" failed", "error", err)
	return common.WrapError(common.KindInternal, "internal server error", err)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// requireFields returns an InvalidInput error listing every blank field, or
// nil. fields alternates name and value.
func requireFields(message string, fields ...string) error {
	var details []common.FieldError
	for i := 0; i+1 < len(fields); i += 2 {
		if blank(fields[i+1]) {
			details = append(details, common.FieldError{Field: fields[i], Message: fields[i] + " is required"})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return common.NewError(common.KindInvalidInput, message, details...)
}
