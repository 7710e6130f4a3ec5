// Package validation checks command inputs before any network call.
//
// Struct tag validation covers request types:
//
//	type PresignInput struct {
//	    Key     string `json:"key" validate:"required"`
//	    Expires int    `json:"expires" validate:"gte=0"`
//	}
//	err := validation.Validate(in)
//
// Programmatic validation covers values assembled at runtime:
//
//	v := validation.New()
//	v.Required("bucket", creds.Bucket).HTTPURL("endpoint", creds.Endpoint)
//	if err := v.Validate(); err != nil { ... }
package validation
