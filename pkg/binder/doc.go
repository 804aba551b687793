// Package binder decodes HTTP request bodies into typed values.
//
// JSON enforces an application/json content type, caps the body size, rejects
// unknown fields and trailing data, and trims surrounding whitespace from
// decoded strings.
//
//	var req struct {
//	    IDToken string `json:"idToken"`
//	}
//	if err := binder.JSON()(r, &req); err != nil {
//	    // errors.Is(err, binder.ErrUnsupportedMediaType) etc.
//	}
package binder
