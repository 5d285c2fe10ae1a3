package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"anonymizer/internal/config"
	"anonymizer/internal/fileutil"
	"anonymizer/internal/mapping"
)

func newMappingCommand(ctx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect and maintain the local mapping store",
	}
	mappingCmd.AddCommand(newMappingListCommand(ctx))
	mappingCmd.AddCommand(newMappingExportCommand(ctx))
	mappingCmd.AddCommand(newMappingMigrateCommand(ctx))
	return mappingCmd
}

func newMappingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mapping entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := mapping.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			m, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load mapping: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if m.Len() == 0 {
				fmt.Fprintf(stdout, "Mapping is empty (%s)\n", store.Location())
				return nil
			}
			fmt.Fprint(stdout, renderMappingTable(m.Forward))
			fmt.Fprintf(stdout, "%d entries (%s)\n", m.Len(), store.Location())
			return nil
		},
	}
}

func newMappingExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the mapping as text, json or markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := mapping.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			m, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load mapping: %w", err)
			}

			if strings.TrimSpace(output) == "" {
				return mapping.Export(cmd.OutOrStdout(), m, format)
			}
			var buf strings.Builder
			if err := mapping.Export(&buf, m, format); err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(output, []byte(buf.String()), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", m.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", mapping.ExportText, "Output format: "+strings.Join(mapping.ExportFormats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newMappingMigrateCommand(ctx *commandContext) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a mapping text file into the SQLite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return migrateMapping(cmd, cfg, from, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Mapping text file (default storage.mapping_file)")
	return cmd
}

func migrateMapping(cmd *cobra.Command, cfg *config.Config, from string, out io.Writer) error {
	source := strings.TrimSpace(from)
	if source == "" {
		source = cfg.Storage.MappingFile
	}
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("mapping file %s: %w", source, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	store, err := mapping.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	imported, err := store.MigrateFromFile(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", source, err)
	}
	if imported == 0 {
		fmt.Fprintf(out, "Nothing imported: %s already holds entries or %s is empty\n", store.Location(), source)
		return nil
	}
	fmt.Fprintf(out, "Imported %d entries into %s\n", imported, store.Location())
	return nil
}
