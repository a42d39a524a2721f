package mcp

import "errors"

var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidInput    = errors.New("invalid input parameters")
	ErrMissingRequired = errors.New("missing required parameter")
)
