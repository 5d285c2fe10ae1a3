package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"anonymizer/internal/api"
	"anonymizer/internal/fileutil"
)

type textOperation string

const (
	opEncode textOperation = "encode"
	opDecode textOperation = "decode"
)

func newTextCommand(ctx *commandContext, op textOperation) *cobra.Command {
	var filePath string
	var inPlace bool
	var mappingPath string
	var jsonOutput bool

	short := "Anonymize text: replace [[marked]] terms and known originals with tokens"
	if op == opDecode {
		short = "Restore originals in anonymized text"
	}

	cmd := &cobra.Command{
		Use:   string(op) + " [text...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && filePath == "" {
				return errors.New("--in-place requires --file")
			}
			text, err := readInputText(cmd, args, filePath)
			if err != nil {
				return err
			}
			in := api.TextIn{Text: text}
			if mappingPath != "" {
				seed, err := readMappingJSON(mappingPath)
				if err != nil {
					return err
				}
				in.Mapping = seed
			}

			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out, err := callText(cmd.Context(), apiClient, op, in)
			if err != nil {
				return fmt.Errorf("%s via %s: %w", op, apiClient.BaseURL(), err)
			}

			if inPlace {
				mode := fileutil.FileMode(filePath, 0o644)
				if err := fileutil.WriteFileAtomic(filePath, []byte(out.Text), mode); err != nil {
					return fmt.Errorf("rewrite %s: %w", filePath, err)
				}
			}

			if jsonOutput {
				return writeJSON(cmd, out)
			}
			stdout := cmd.OutOrStdout()
			if inPlace {
				fmt.Fprintf(stdout, "Updated %s (%d mapping entries)\n", filePath, len(out.Mapping))
				return nil
			}
			fmt.Fprintln(stdout, out.Text)
			if len(out.Mapping) > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprint(stdout, renderMappingTable(out.Mapping))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read text from this file instead of arguments or stdin")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Rewrite --file with the result")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "JSON file with an ORIGINAL→TOKEN object to send with the request")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw API response as JSON")
	return cmd
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the anonymizer API answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			health, err := apiClient.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health via %s: %w", apiClient.BaseURL(), err)
			}
			if jsonOutput {
				return writeJSON(cmd, health)
			}
			state := "ok"
			if !health.OK {
				state = "not ok"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API %s: %s\n", apiClient.BaseURL(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw API response as JSON")
	return cmd
}

type textCaller interface {
	Encode(ctx context.Context, in api.TextIn) (api.TextOut, error)
	Decode(ctx context.Context, in api.TextIn) (api.TextOut, error)
}

func callText(ctx context.Context, c textCaller, op textOperation, in api.TextIn) (api.TextOut, error) {
	if op == opDecode {
		return c.Decode(ctx, in)
	}
	return c.Encode(ctx, in)
}

func readInputText(cmd *cobra.Command, args []string, filePath string) (string, error) {
	switch {
	case filePath != "" && len(args) > 0:
		return "", errors.New("pass text as arguments or --file, not both")
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filePath, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}
}

func readMappingJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	var seed map[string]string
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse mapping %s: expected a JSON object of strings: %w", path, err)
	}
	return seed, nil
}
