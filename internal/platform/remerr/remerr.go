// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

// Package remerr provides a bridge between low-level inventory-service call
// failures and higher-level application errors.
package remerr

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mjoris/plaquier/internal/platform/apperr"
)

// upstreamBody is the subset of an inventory error payload worth surfacing.
// The service is inconsistent about which key carries the message.
type upstreamBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

// Wrap inspects a transport error and wraps it into a meaningful [apperr.AppError].
//
// Context cancellation is passed through untouched: a superseded query is not
// an error and its response must be discarded, never rendered or reported.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if IsCanceled(err) {
		return err
	}

	return apperr.Unavailable(err)
}

// FromResponse converts a non-2xx inventory response into an [apperr.AppError],
// carrying the server's own message when one can be extracted.
func FromResponse(status int, body []byte, action string) error {
	var parsed upstreamBody
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.Message
	if msg == "" {
		msg = parsed.Error
	}
	if msg == "" {
		msg = parsed.Detail
	}

	return apperr.Upstream(status, msg, errors.New(action+" failed"))
}

// IsCanceled reports whether err stems from context cancellation or expiry,
// i.e. a superseded or abandoned query rather than a real failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
