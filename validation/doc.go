// Package validation checks configuration and bridge requests.
//
// Struct tag validation uses go-playground/validator with two extra tags,
// model_name and session_id:
//
//	type CommandRequest struct {
//	    Line    string `json:"line" validate:"required,max=512"`
//	    Session string `json:"session" validate:"omitempty,session_id"`
//	}
//	err := validation.Validate(req)
//
// The chainable Validator covers values that do not live in a struct, such
// as path parameters.
package validation
