package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  "Generate the OpenAPI 3.1 description of the site API, the same document the server serves at /openapi.json.",
		Example: `  atelier openapi                 # print to stdout
  atelier openapi -o openapi.json # write to file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}

func runOpenAPI(cmd *cobra.Command, outputFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc := openapi.Generate(cfg.Server.BaseURL, appVersion)
	raw, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("render spec: %w", err)
	}
	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("render spec: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, append(out, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outputFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
