package intermediate

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for validation
var (
	ErrInvalidLineNumber = errors.New("instruction has invalid line number")
	ErrLineOrder         = errors.New("instruction lines are not in order")
)

// ExecutionError represents an error raised while the generated program ran
type ExecutionError struct {
	Message     string `json:"message"`
	Instruction int    `json:"instruction_index"`
	Line        int    `json:"line"` // source line of the failing instruction
	SourceFile  string `json:"source_file,omitempty"`
	SourceLine  string `json:"source_line,omitempty"` // The actual line from source
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("%s:%d: %s", e.SourceFile, e.Line, e.Message)
	}

	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// DetailedError returns a detailed error message with source context
func (e *ExecutionError) DetailedError() string {
	var builder strings.Builder

	builder.WriteString(e.Error())
	builder.WriteString("\n")

	if e.SourceLine != "" {
		builder.WriteString("\n")
		builder.WriteString(e.SourceLine)
		builder.WriteString("\n")

		// underline the code, not its indentation
		trimmed := strings.TrimLeft(e.SourceLine, " \t")
		if trimmed != "" {
			builder.WriteString(e.SourceLine[:len(e.SourceLine)-len(trimmed)])
			builder.WriteString(strings.Repeat("^", len(strings.TrimRight(trimmed, " \t"))))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// NewExecutionError creates a new execution error with position information
func NewExecutionError(message string, instructionIndex int, instruction *Instruction, sourceFile, sourceContent string) *ExecutionError {
	err := &ExecutionError{
		Message:     message,
		Instruction: instructionIndex,
		Line:        instruction.Line,
		SourceFile:  sourceFile,
	}

	if sourceContent != "" {
		lines := strings.Split(sourceContent, "\n")
		if instruction.Line > 0 && instruction.Line <= len(lines) {
			err.SourceLine = strings.TrimRight(lines[instruction.Line-1], "\r")
		}
	}

	return err
}

// ErrorReporter helps create detailed error messages for instruction execution
type ErrorReporter struct {
	SourceFile    string
	SourceContent string
	Instructions  []Instruction
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(sourceFile, sourceContent string, instructions []Instruction) *ErrorReporter {
	return &ErrorReporter{
		SourceFile:    sourceFile,
		SourceContent: sourceContent,
		Instructions:  instructions,
	}
}

// ReportError creates a detailed execution error
func (er *ErrorReporter) ReportError(message string, instructionIndex int) *ExecutionError {
	if instructionIndex < 0 || instructionIndex >= len(er.Instructions) {
		return &ExecutionError{
			Message:     message,
			Instruction: instructionIndex,
			SourceFile:  er.SourceFile,
		}
	}

	instruction := &er.Instructions[instructionIndex]

	return NewExecutionError(message, instructionIndex, instruction, er.SourceFile, er.SourceContent)
}

// ReportLine creates an execution error for a failure on a generated line,
// as reported by a runtime stack trace
func (er *ErrorReporter) ReportLine(message string, line int) *ExecutionError {
	for i, inst := range er.Instructions {
		if inst.Line == line && inst.Op != OpNewline {
			return er.ReportError(message, i)
		}
	}

	return er.ReportError(message, -1)
}

// ValidateInstructionLines checks that every instruction points into the
// source and that lines never decrease
func ValidateInstructionLines(instructions []Instruction, sourceContent string) []error {
	var validationErrors []error

	lineCount := len(strings.Split(strings.TrimSuffix(sourceContent, "\n"), "\n"))
	previous := 1

	for i, inst := range instructions {
		if inst.Line < 1 || inst.Line > lineCount {
			validationErrors = append(validationErrors, fmt.Errorf("%w: %d for instruction %d (%s)", ErrInvalidLineNumber, inst.Line, i, inst.Op))
		}

		if inst.Line < previous {
			validationErrors = append(validationErrors, fmt.Errorf("%w: %d after %d for instruction %d (%s)", ErrLineOrder, inst.Line, previous, i, inst.Op))
		}

		previous = inst.Line
	}

	return validationErrors
}
