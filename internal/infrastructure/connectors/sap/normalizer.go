package sap

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/b2bhub/backend/internal/infrastructure/resilience"
)

// businessRuleCodes are SAP message classes that indicate a business rule
// rejection rather than a transport or validation failure.
var businessRuleCodes = map[string]bool{
	"V4/219":          true, // customer blocked for orders
	"V1/154":          true, // credit limit exceeded
	"SLS_LORD/010":    true,
	"ATP/002":         true, // requested quantity not available
	"CREDIT_CHECK/01": true,
}

// Normalize classifies a SAP failure into the shared taxonomy. The OData
// error body, when present, contributes the vendor message, field-level
// details, and business-rule detection; the HTTP status keeps precedence for
// the category otherwise.
func Normalize(err error, httpStatus int, body []byte, retryAfter string) *resilience.ConnectorError {
	if err == nil && httpStatus == 0 {
		return nil
	}

	var odata odataErrorBody
	vendorMessage := ""
	vendorCode := ""
	if len(body) > 0 && json.Unmarshal(body, &odata) == nil {
		vendorMessage = odata.Error.Message.Value
		vendorCode = odata.Error.Code
	}

	base := err
	if base == nil {
		if vendorMessage != "" {
			base = errors.New(vendorMessage)
		} else {
			base = errors.New("sap: request failed")
		}
	}

	connErr := resilience.Classify(base, httpStatus)

	if vendorMessage != "" {
		connErr.Message = vendorMessage
	}

	// SAP reports business rejections as 400s with a known message class.
	if connErr.Category == resilience.CategoryValidation && businessRuleCodes[vendorCode] {
		connErr.Category = resilience.CategoryBusinessRule
	}

	if connErr.Category == resilience.CategoryValidation && len(odata.Error.InnerError.ErrorDetails) > 0 {
		connErr.FieldErrors = make(map[string]string, len(odata.Error.InnerError.ErrorDetails))
		for _, detail := range odata.Error.InnerError.ErrorDetails {
			target := detail.Target
			if target == "" {
				target = detail.Code
			}
			connErr.FieldErrors[target] = detail.Message
		}
	}

	if connErr.Category == resilience.CategoryRateLimit && retryAfter != "" {
		if seconds, parseErr := strconv.Atoi(strings.TrimSpace(retryAfter)); parseErr == nil && seconds > 0 {
			connErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return connErr
}
