package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akila/convert-api/models"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert one local file",
	Long: `Convert runs a single conversion without the HTTP server. The input
format is taken from the file extension; the output is written next to
the input unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		out, _ := cmd.Flags().GetString("out")
		page, _ := cmd.Flags().GetInt("page")

		req, err := convertRequest(args[0], to, out, page)
		if err != nil {
			return err
		}

		eng := newEngine(cmd.Context(), cfg, logger)
		defer eng.Close()
		if err := eng.dispatcher.Convert(cmd.Context(), req); err != nil {
			return err
		}

		st, err := os.Stat(req.OutputPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", req.OutputPath, humanize.IBytes(uint64(st.Size())))
		return nil
	},
}

func init() {
	convertCmd.Flags().String("to", "", "target format, e.g. pdf, xlsx, png")
	convertCmd.Flags().String("out", "", "output path (default: <input>.<to>)")
	convertCmd.Flags().Int("page", 0, "PDF page to render for image output, 1-based")
	_ = convertCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(convertCmd)
}

// convertRequest builds the request for converting input to format to.
func convertRequest(input, to, out string, page int) (models.ConversionRequest, error) {
	if page < 0 {
		return models.ConversionRequest{}, models.Errorf(models.KindInvalidRequest, "Invalid page: %d", page)
	}
	from := models.NormalizeFormat(filepath.Ext(input))
	if from == "" {
		return models.ConversionRequest{}, models.Errorf(models.KindInvalidRequest, "Cannot tell the format of %s", input)
	}
	if _, err := os.Stat(input); err != nil {
		return models.ConversionRequest{}, err
	}
	to = models.NormalizeFormat(to)
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "." + to
	}
	return models.ConversionRequest{
		InputPath:    input,
		OutputPath:   out,
		InputFormat:  from,
		OutputFormat: to,
		Page:         page,
	}, nil
}
