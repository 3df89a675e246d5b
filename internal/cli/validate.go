package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Files  int                        `json:"files"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate YAML scenario files against the scenario schema.

Checks field types, allowed outcomes and assertion types, that every
assertion carries a bound, and that the named fixture exists. Nothing is
executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only validate files whose path contains this string")

	return cmd
}

func runValidate(opts *RootOptions, dir, filter string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("directory not found: %s", dir), nil)
	}

	files, err := scenario.FindFiles(dir, filter)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("no scenario files found in %s", dir), nil)
	}
	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), dir)

	v, err := scenario.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build validator", err)
	}

	var errs []scenario.ValidationError
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		errs = append(errs, validateScenarioFile(v, file)...)
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(files), errs)
	}
	return outputValidateSuccess(formatter, len(files))
}

// validateScenarioFile checks the schema, then that the fixture is known.
func validateScenarioFile(v *scenario.Validator, file string) []scenario.ValidationError {
	if errs := v.ValidateFile(file); len(errs) > 0 {
		return errs
	}

	sc, err := scenario.Load(file)
	if err != nil {
		return []scenario.ValidationError{{File: file, Message: err.Error()}}
	}
	if _, ok := fixtures.Default().Get(sc.Fixture); !ok {
		return []scenario.ValidationError{{
			File:    file,
			Field:   "fixture",
			Message: fmt.Sprintf("unknown fixture %q", sc.Fixture),
		}}
	}
	return nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario file(s) valid\n", files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []scenario.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    ErrCodeInvalidFile,
				Message: errs[0].Error(),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
