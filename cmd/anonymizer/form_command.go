package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"anonymizer/internal/form"
	"anonymizer/internal/logging"
)

const formHelp = `Type text to append it to the input. Commands:
  :encode   send the input to /encode
  :decode   send the input to /decode
  :show     print the current state
  :clear    empty the input
  :quit     leave the session`

func newFormCommand(ctx *commandContext) *cobra.Command {
	var replaceInput bool

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Interactive encode/decode session",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:       "error",
				Format:      "console",
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			opts := []form.Option{form.WithLogger(logger), form.WithContext(cmd.Context())}
			if replaceInput {
				opts = append(opts, form.WithReplaceInput())
			}
			ctrl := form.New(apiClient, opts...)
			defer ctrl.Close()

			return runFormSession(ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&replaceInput, "replace-input", false, "Replace the input with each result (single-field mode)")
	return cmd
}

func runFormSession(ctrl *form.Controller, in io.Reader, out io.Writer) error {
	interactive := false
	if file, ok := in.(*os.File); ok {
		interactive = isTerminal(file)
	}
	if interactive {
		fmt.Fprintln(out, formHelp)
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case ":encode":
			lines = submitForm(ctrl, lines, out, ctrl.Encode)
		case ":decode":
			lines = submitForm(ctrl, lines, out, ctrl.Decode)
		case ":show":
			printFormState(out, ctrl.Snapshot())
		case ":clear":
			lines = nil
			ctrl.SetInput("")
		case ":quit", ":q":
			return nil
		case ":help":
			fmt.Fprintln(out, formHelp)
		default:
			lines = append(lines, line)
		}
	}
	return scanner.Err()
}

// submitForm runs call on the buffered input and prints the result. A blank
// buffer never reaches the controller.
func submitForm(ctrl *form.Controller, lines []string, out io.Writer, call func() <-chan struct{}) []string {
	input := strings.Join(lines, "\n")
	if strings.TrimSpace(input) == "" {
		fmt.Fprintln(out, "Input is empty")
		return lines
	}
	ctrl.SetInput(input)
	<-call()
	lines = resultLines(ctrl, lines)
	printFormResult(out, ctrl.Snapshot())
	return lines
}

// resultLines keeps the session buffer in sync with the controller input,
// which changes only in replace-input mode.
func resultLines(ctrl *form.Controller, lines []string) []string {
	input := ctrl.Snapshot().Input
	if input == strings.Join(lines, "\n") {
		return lines
	}
	return strings.Split(input, "\n")
}

func printFormResult(out io.Writer, s form.State) {
	if s.Err != "" {
		fmt.Fprintln(out, s.Err)
		return
	}
	fmt.Fprintln(out, s.Output)
	if len(s.Mapping) > 0 {
		fmt.Fprint(out, renderMappingTable(s.Mapping))
	}
}

func printFormState(out io.Writer, s form.State) {
	fmt.Fprintf(out, "Input:\n%s\n", s.Input)
	fmt.Fprintf(out, "Output:\n%s\n", s.Output)
	if s.Err != "" {
		fmt.Fprintf(out, "Error: %s\n", s.Err)
	}
	fmt.Fprintf(out, "Mapping entries: %d\n", len(s.Mapping))
}
