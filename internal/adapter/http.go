package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

// Backend routes.
const (
	PathInstance      = "/mobile/3/instance"
	PathUser          = "/mobile/3/user"
	PathPersonalize   = "/mobile/3/user/personalize"
	PathDepersonalize = "/mobile/3/user/depersonalize"
)

// sensitiveFields are masked in debug logs.
var sensitiveFields = []string{
	models.FieldPushServiceToken, "pushRegId", "emails", "phones", "firstName", "lastName", "birthday",
}

type httpRemoteAPI struct {
	client *utils.HTTPClient
	jwt    JWTSupplier
	clock  clockwork.Clock
	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

// CreateInstance implements [RemoteAPI]. It POSTs the body to
// POST /mobile/3/instance and returns the created instance.
func (h *httpRemoteAPI) CreateInstance(ctx context.Context, appCode string, body delta.Map) (delta.Map, error) {
	wire := delta.AdjustFieldNames(body)
	h.debug(ctx, "CreateInstance", wire)

	resp, err := h.newRequest(ctx, appCode, "").
		SetHeader("Content-Type", "application/json").
		SetBody(wire).
		Post(PathInstance)
	if err != nil {
		return nil, mapTransportError(ctx, "create instance", err)
	}
	if err = mapHTTPError("create instance", resp); err != nil {
		return nil, err
	}

	return decodeMap("create instance", resp)
}

// UpdateInstance implements [RemoteAPI]. It PATCHes /mobile/3/instance.
func (h *httpRemoteAPI) UpdateInstance(ctx context.Context, appCode, pushRegID string, patch delta.Map) error {
	wire := delta.AdjustFieldNames(patch)
	h.debug(ctx, "UpdateInstance", wire)

	resp, err := h.newRequest(ctx, appCode, pushRegID).
		SetHeader("Content-Type", "application/json").
		SetBody(wire).
		Patch(PathInstance)
	if err != nil {
		return mapTransportError(ctx, "update instance", err)
	}

	return mapHTTPError("update instance", resp)
}

// DeleteInstance implements [RemoteAPI]. It sends
// DELETE /mobile/3/instance/{expiredPushRegID} authorized by pushRegID.
func (h *httpRemoteAPI) DeleteInstance(ctx context.Context, appCode, pushRegID, expiredPushRegID string) error {
	resp, err := h.newRequest(ctx, appCode, pushRegID).
		SetPathParam("expired", expiredPushRegID).
		Delete(PathInstance + "/{expired}")
	if err != nil {
		return mapTransportError(ctx, "delete instance", err)
	}

	return mapHTTPError("delete instance", resp)
}

// FetchInstance implements [RemoteAPI]. It GETs /mobile/3/instance.
func (h *httpRemoteAPI) FetchInstance(ctx context.Context, appCode, pushRegID string) (delta.Map, error) {
	resp, err := h.newRequest(ctx, appCode, pushRegID).Get(PathInstance)
	if err != nil {
		return nil, mapTransportError(ctx, "fetch instance", err)
	}
	if err = mapHTTPError("fetch instance", resp); err != nil {
		return nil, err
	}

	return decodeMap("fetch instance", resp)
}

// FetchUser implements [RemoteAPI]. It GETs /mobile/3/user.
func (h *httpRemoteAPI) FetchUser(ctx context.Context, appCode, pushRegID string) (delta.Map, error) {
	req, err := h.newUserRequest(ctx, appCode, pushRegID)
	if err != nil {
		return nil, err
	}

	resp, err := req.Get(PathUser)
	if err != nil {
		return nil, mapTransportError(ctx, "fetch user", err)
	}
	if err = mapHTTPError("fetch user", resp); err != nil {
		return nil, err
	}

	return decodeMap("fetch user", resp)
}

// UpdateUser implements [RemoteAPI]. It PATCHes /mobile/3/user.
func (h *httpRemoteAPI) UpdateUser(ctx context.Context, appCode, pushRegID string, patch delta.Map) error {
	req, err := h.newUserRequest(ctx, appCode, pushRegID)
	if err != nil {
		return err
	}
	h.debug(ctx, "UpdateUser", patch)

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(patch).
		Patch(PathUser)
	if err != nil {
		return mapTransportError(ctx, "update user", err)
	}

	return mapHTTPError("update user", resp)
}

// Personalize implements [RemoteAPI]. It POSTs identity and attributes to
// /mobile/3/user/personalize?forceDepersonalize=<force> and returns the
// resulting user.
func (h *httpRemoteAPI) Personalize(ctx context.Context, appCode, pushRegID string, identity, attributes delta.Map, force bool) (delta.Map, error) {
	req, err := h.newUserRequest(ctx, appCode, pushRegID)
	if err != nil {
		return nil, err
	}

	body := models.PersonalizeRequest{UserIdentity: identity.Interface()}
	if len(attributes) > 0 {
		body.UserAttributes = attributes.Interface()
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetQueryParam("forceDepersonalize", strconv.FormatBool(force)).
		SetBody(body).
		Post(PathPersonalize)
	if err != nil {
		return nil, mapTransportError(ctx, "personalize", err)
	}
	if err = mapHTTPError("personalize", resp); err != nil {
		return nil, err
	}

	return decodeMap("personalize", resp)
}

// Depersonalize implements [RemoteAPI]. It POSTs /mobile/3/user/depersonalize.
func (h *httpRemoteAPI) Depersonalize(ctx context.Context, appCode, pushRegID string) error {
	resp, err := h.newRequest(ctx, appCode, pushRegID).Post(PathDepersonalize)
	if err != nil {
		return mapTransportError(ctx, "depersonalize", err)
	}

	return mapHTTPError("depersonalize", resp)
}

func (h *httpRemoteAPI) debug(ctx context.Context, op string, body delta.Map) {
	logger.FromContext(ctx).Debug().
		Str("func", "httpRemoteAPI."+op).
		Interface("body", delta.Masked(body, sensitiveFields...).Interface()).
		Msg("sending request")
}

func decodeMap(op string, resp *resty.Response) (delta.Map, error) {
	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return delta.Map{}, nil
	}

	var m delta.Map
	if err := json.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeResponse, op, err)
	}
	return delta.LogicalFieldNames(m), nil
}
