// Package main provides the Lensflow workflow file linter.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/validation"
)

func main() {
	cmd := &cli.Command{
		Name:                  "lensflow-lint",
		Usage:                 "Validate workflow files without a running API",
		ArgsUsage:             "FILE...",
		EnableShellCompletion: true,
		Action: func(ctx context.Context, command *cli.Command) error {
			files := command.Args().Slice()
			if len(files) == 0 {
				return fmt.Errorf("no workflow files given")
			}

			return lintFiles(files)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func lintFiles(paths []string) error {
	fmt.Println("Workflow Validation Results:")
	fmt.Println("============================")

	validFiles := 0
	invalidFiles := 0

	for _, path := range paths {
		fmt.Printf("\nFile: %s\n", path)

		problems := lintFile(path)
		if len(problems) == 0 {
			fmt.Printf("    ✅ VALID\n")

			validFiles++

			continue
		}

		for _, problem := range problems {
			fmt.Printf("    ❌ INVALID: %s\n", problem)
		}

		invalidFiles++
	}

	fmt.Printf("\nValidation Summary:\n")
	fmt.Printf("  Total files: %d\n", validFiles+invalidFiles)
	fmt.Printf("  Valid files: %d\n", validFiles)
	fmt.Printf("  Invalid files: %d\n", invalidFiles)

	if invalidFiles > 0 {
		return fmt.Errorf("found %d invalid workflow files", invalidFiles)
	}

	fmt.Println("All workflow files are valid! ✅")

	return nil
}

// lintFile runs the same checks the API applies on submission: the document
// shape first, then the pipeline rules. It reports every problem it finds
// rather than stopping at the first one.
func lintFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("cannot read file: %v", err)}
	}

	fieldErrors, err := models.CheckShape(data)
	if err != nil {
		return []string{"not valid JSON"}
	}

	if fieldErrors != nil {
		problems := make([]string, 0, len(fieldErrors))

		for field, messages := range fieldErrors {
			for _, message := range messages {
				problems = append(problems, fmt.Sprintf("%s: %s", field, message))
			}
		}

		// Field errors come out of a map; sort them so runs are comparable.
		sort.Strings(problems)

		return problems
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return []string{err.Error()}
	}

	violations := validation.CheckComponents(workflow.Components)

	problems := make([]string, 0, len(violations))
	for _, violation := range violations {
		problems = append(problems, fmt.Sprintf("%s: %s", violation.Code, violation.Message))
	}

	return problems
}
