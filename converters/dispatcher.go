// Package converters maps (input, output) format pairs to conversion routines
// and implements the routines themselves.
package converters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/akila/convert-api/models"
)

// Route names, as they appear in logs and history.
const (
	RouteImage       = "image"
	RoutePDFToWord   = "pdf-to-word"
	RouteWordToPDF   = "word-to-pdf"
	RouteDocToPDF    = "doc-to-pdf"
	RoutePDFToExcel  = "pdf-to-excel"
	RouteExcelToPDF  = "excel-to-pdf"
	RoutePDFToImage  = "pdf-to-image"
	routeUnsupported = ""
)

// Converter performs one conversion.
type Converter interface {
	Convert(ctx context.Context, req models.ConversionRequest) error
}

type routine func(ctx context.Context, req models.ConversionRequest) error

// Dispatcher selects and runs the routine for a format pair.
type Dispatcher struct {
	registry models.FormatRegistry
	office   Office
	logger   zerolog.Logger
}

func NewDispatcher(registry models.FormatRegistry, office Office, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		office:   office,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Registry returns the formats the dispatcher was built with.
func (d *Dispatcher) Registry() models.FormatRegistry {
	return d.registry
}

// Route names the routine that handles in -> out, or returns the classified
// error Convert would fail with.
func (d *Dispatcher) Route(in, out string) (string, error) {
	in, out = models.NormalizeFormat(in), models.NormalizeFormat(out)
	if !d.registry.Supports(in) {
		return routeUnsupported, models.Errorf(models.KindUnsupportedFormat, "Unsupported input format: %s", in)
	}
	if !d.registry.Supports(out) {
		return routeUnsupported, models.Errorf(models.KindUnsupportedFormat, "Unsupported output format: %s", out)
	}
	if in == out {
		return routeUnsupported, models.Errorf(models.KindIdenticalFormat, "Input and output formats are the same")
	}
	if name := d.routeName(in, out); name != routeUnsupported {
		return name, nil
	}
	return routeUnsupported, models.Errorf(models.KindUnsupportedConversion,
		"Conversion from %s to %s not supported", in, out)
}

func (d *Dispatcher) routeName(in, out string) string {
	images := models.CategoryImages
	switch {
	case d.registry.In(images, in) && d.registry.In(images, out):
		return RouteImage
	case in == "pdf" && out == "docx":
		return RoutePDFToWord
	case in == "docx" && out == "pdf":
		return RouteWordToPDF
	case in == "doc" && out == "pdf":
		return RouteDocToPDF
	case in == "pdf" && out == "xlsx":
		return RoutePDFToExcel
	case (in == "xlsx" || in == "xls") && out == "pdf":
		return RouteExcelToPDF
	case in == "pdf" && (out == "png" || out == "jpg" || out == "jpeg"):
		return RoutePDFToImage
	}
	return routeUnsupported
}

func (d *Dispatcher) routine(name string) routine {
	switch name {
	case RouteImage:
		return func(_ context.Context, req models.ConversionRequest) error {
			return ConvertImage(req.InputPath, req.OutputPath, req.OutputFormat)
		}
	case RouteWordToPDF:
		return func(_ context.Context, req models.ConversionRequest) error {
			return RenderDocx(req.InputPath, req.OutputPath)
		}
	case RoutePDFToWord, RouteDocToPDF:
		return func(ctx context.Context, req models.ConversionRequest) error {
			if d.office == nil {
				return errors.New("no office converter configured")
			}
			return d.office.Convert(ctx, req.InputPath, req.OutputPath, req.OutputFormat)
		}
	case RoutePDFToExcel:
		return func(_ context.Context, req models.ConversionRequest) error {
			return PDFToWorkbook(req.InputPath, req.OutputPath, d.logger)
		}
	case RouteExcelToPDF:
		return func(_ context.Context, req models.ConversionRequest) error {
			return RenderWorkbook(req.InputPath, req.OutputPath, req.InputFormat)
		}
	case RoutePDFToImage:
		return func(_ context.Context, req models.ConversionRequest) error {
			return RenderPage(req.InputPath, req.OutputPath, req.OutputFormat, req.Page)
		}
	}
	return nil
}

// Convert runs the routine for the request's format pair. Routine failures are
// reported as ConversionFailed wrapping the cause; NoTablesFound keeps its kind.
// A routine that reports success without producing a non-empty output file is
// treated as failed.
func (d *Dispatcher) Convert(ctx context.Context, req models.ConversionRequest) error {
	name, err := d.Route(req.InputFormat, req.OutputFormat)
	if err != nil {
		return err
	}
	req.InputFormat = models.NormalizeFormat(req.InputFormat)
	req.OutputFormat = models.NormalizeFormat(req.OutputFormat)

	log := d.logger.With().
		Str("route", name).
		Str("input_format", req.InputFormat).
		Str("output_format", req.OutputFormat).
		Logger()

	start := time.Now()
	err = d.routine(name)(ctx, req)
	if err == nil {
		err = checkOutput(req.OutputPath)
	}
	elapsed := time.Since(start)
	if err != nil {
		err = models.ConversionFailed(fmt.Sprintf("%s conversion failed", name), err)
		log.Warn().Err(err).Dur("duration", elapsed).Msg("conversion failed")
		return err
	}
	log.Info().Dur("duration", elapsed).Msg("converted")
	return nil
}

func checkOutput(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no output produced: %w", err)
	}
	if st.Size() == 0 {
		return errors.New("output file is empty")
	}
	return nil
}
