package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/schema"
)

// Tool names.
const (
	ToolNameTransform = "markup_transform"
	ToolNameCheck     = "markup_check"
	ToolNameValidate  = "definition_validate"
)

// MaxSourceBytes is the maximum accepted size of an inline document (1 MB).
const MaxSourceBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrSourceTooLarge indicates the source input exceeds MaxSourceBytes.
	ErrSourceTooLarge = errors.New("source input exceeds maximum size")
	// ErrEmptyDefinition indicates the definition parameter is empty.
	ErrEmptyDefinition = errors.New("definition parameter is required and must not be empty")
)

// TransformInput is the input schema for the markup_transform tool.
type TransformInput struct {
	Source string `json:"source" jsonschema:"markup document to compile"`
}

// CheckInput is the input schema for the markup_check tool.
type CheckInput struct {
	Source string `json:"source" jsonschema:"markup document to check"`
}

// ValidateInput is the input schema for the definition_validate tool.
type ValidateInput struct {
	Definition string `json:"definition" jsonschema:"component definition JSON document"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// TransformResult is the payload of markup_transform.
type TransformResult struct {
	Definition *compdef.Definition `json:"definition,omitempty"`
	Problems   []diag.Diagnostic   `json:"problems"`
}

// CheckResult is the payload of markup_check.
type CheckResult struct {
	OK       bool              `json:"ok"`
	Problems []diag.Diagnostic `json:"problems"`
}

// ValidateResult is the payload of definition_validate.
type ValidateResult struct {
	Valid      bool               `json:"valid"`
	Violations []schema.Violation `json:"violations"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateSource(source string) error {
	if len(source) > MaxSourceBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSourceTooLarge, len(source), MaxSourceBytes)
	}

	return nil
}

// compile runs the shared compiler and gathers the located problems. An
// empty source is passed through: it is itself a reportable problem.
func (s *Server) compile(ctx context.Context, source string) (*markup.Result, []diag.Diagnostic, error) {
	res, err := s.compiler.Compile(ctx, s.fileID(), []byte(source))

	problems := markup.Problems(source, res, err)
	if problems == nil {
		problems = []diag.Diagnostic{}
	}

	return res, problems, err
}

// handleTransform returns the definition, or flags the result as an error
// when the document does not compile.
func (s *Server) handleTransform(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TransformInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateSource(input.Source); err != nil {
		return errorResult(err)
	}

	res, problems, err := s.compile(ctx, input.Source)

	out := TransformResult{Problems: problems}
	if err == nil {
		out.Definition = &res.Definition
	}

	result, output, encErr := jsonResult(out)
	if result != nil && err != nil {
		result.IsError = true
	}

	return result, output, encErr
}

func (s *Server) handleCheck(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CheckInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateSource(input.Source); err != nil {
		return errorResult(err)
	}

	_, problems, err := s.compile(ctx, input.Source)

	return jsonResult(CheckResult{OK: err == nil, Problems: problems})
}

func handleValidate(
	_ context.Context, _ *mcpsdk.CallToolRequest, input ValidateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Definition == "" {
		return errorResult(ErrEmptyDefinition)
	}

	violations, err := schema.Validate([]byte(input.Definition))
	if err != nil {
		return errorResult(err)
	}

	if violations == nil {
		violations = []schema.Violation{}
	}

	return jsonResult(ValidateResult{Valid: len(violations) == 0, Violations: violations})
}
