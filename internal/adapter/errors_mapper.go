package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-push-sync/models"
)

// mapTransportError classifies an error returned by resty before any answer
// was received. Cancellation is not a transport failure.
func mapTransportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

func mapHTTPError(op string, resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	code, text := parseErrorBody(resp.Body())
	if text == "" {
		text = http.StatusText(status)
	}

	if code == models.ErrorCodeNoRegistration {
		return fmt.Errorf("%w: %s: %s", ErrNoSuchRegistration, op, text)
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", ErrNoSuchRegistration, op, text)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %s", ErrUnauthorized, op, text)
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s: http %d: %s", ErrTransport, op, status, text)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: http %d: %s", ErrTransport, op, status, text)
	default:
		return fmt.Errorf("%w: %s: http %d: %s", ErrValidation, op, status, text)
	}
}

func parseErrorBody(body []byte) (code, text string) {
	var er models.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.RequestError.ServiceException.MessageID != "" {
		return er.RequestError.ServiceException.MessageID, er.RequestError.ServiceException.Text
	}
	return "", strings.TrimSpace(string(body))
}
