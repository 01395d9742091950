package dynamics

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/b2bhub/backend/internal/infrastructure/resilience"
)

// businessRuleCodes are Dynamics error codes raised by business process
// rules rather than transport or validation failures.
var businessRuleCodes = map[string]bool{
	"0x80040265": true, // custom business rule / plugin rejection
	"0x8004F001": true, // credit hold
	"0x80048d19": true, // status transition not allowed
}

// Normalize classifies a Dynamics Web API failure into the shared taxonomy
func Normalize(err error, httpStatus int, body []byte, retryAfter string) *resilience.ConnectorError {
	if err == nil && httpStatus == 0 {
		return nil
	}

	var webErr webAPIError
	vendorMessage := ""
	vendorCode := ""
	if len(body) > 0 && json.Unmarshal(body, &webErr) == nil {
		vendorMessage = webErr.Error.Message
		vendorCode = webErr.Error.Code
	}

	base := err
	if base == nil {
		if vendorMessage != "" {
			base = errors.New(vendorMessage)
		} else {
			base = errors.New("dynamics: request failed")
		}
	}

	connErr := resilience.Classify(base, httpStatus)

	if vendorMessage != "" {
		connErr.Message = vendorMessage
	}

	// Plugin and business process rejections arrive as 400s with a
	// well-known error code.
	if connErr.Category == resilience.CategoryValidation && businessRuleCodes[vendorCode] {
		connErr.Category = resilience.CategoryBusinessRule
	}

	if connErr.Category == resilience.CategoryRateLimit && retryAfter != "" {
		if seconds, parseErr := strconv.Atoi(strings.TrimSpace(retryAfter)); parseErr == nil && seconds > 0 {
			connErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return connErr
}
