package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/adrianliechti/paperflow/config"
	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/otel"
	"github.com/adrianliechti/paperflow/pkg/pipeline"
)

func main() {
	configFlag := flag.String("config", "", "config file")
	urlFlag := flag.String("url", "", "service url")
	tokenFlag := flag.String("token", "", "service token")

	inFlag := flag.String("in", "", "input image or pdf")
	outFlag := flag.String("out", "", "output pdf (default: <input>.searchable.pdf)")

	passwordFlag := flag.String("password", "", "pdf password")
	noDetectFlag := flag.Bool("no-detect", false, "skip document detection")
	concurrencyFlag := flag.Int("concurrency", 0, "documents processed in parallel")
	langFlag := flag.String("lang", "", "comma separated ocr languages")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := otel.Setup(ctx, "paperflow")

	if err != nil {
		fatal(err)
	}

	defer shutdown(context.Background())

	cfg := &config.Config{}

	if *configFlag != "" {
		if cfg, err = config.Parse(*configFlag); err != nil {
			fatal(err)
		}
	}

	if *urlFlag != "" {
		cfg.URL = *urlFlag
	}

	if *tokenFlag != "" {
		cfg.Token = *tokenFlag
	}

	if *concurrencyFlag > 0 {
		cfg.Concurrency = *concurrencyFlag
	}

	if *noDetectFlag {
		cfg.DetectDocuments = client.Ptr(false)
	}

	if *langFlag != "" {
		cfg.Languages = strings.Split(*langFlag, ",")
	}

	input := *inFlag

	if input == "" {
		input = flag.Arg(0)
	}

	if input == "" {
		fatal(fmt.Errorf("missing input file"))
	}

	output := *outFlag

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".searchable.pdf"
	}

	content, err := os.ReadFile(input)

	if err != nil {
		fatal(err)
	}

	logger := slog.Default()

	c, err := cfg.Client(logger)

	if err != nil {
		fatal(err)
	}

	p := cfg.Pipeline(c,
		pipeline.WithLogger(logger),
		pipeline.WithObserver(func(stage pipeline.Stage) {
			fmt.Fprintf(os.Stderr, "\r\033[K%s\n", stage)
		}),
	)

	var result *pipeline.Result

	if isPDF(input, content) {
		options := cfg.PDFOptions()
		options.Password = *passwordFlag
		options.OnProgress = progress("upload")

		result, err = p.PDFToSearchablePDF(ctx, content, options)
	} else {
		options := cfg.ImageOptions()
		options.OnProgress = progress("upload")

		result, err = p.ImageToSearchablePDF(ctx, content, options)
	}

	if err != nil {
		fatal(err)
	}

	data, err := c.PDFs.Download(ctx, result.Handle, progress("download"))

	if err != nil {
		fatal(err)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		fatal(err)
	}

	rotated := 0

	for _, page := range result.Pages {
		if page.Rotated() {
			rotated++
		}
	}

	fmt.Fprintf(os.Stderr, "wrote %s (%d pages, %d rotated, %d documents)\n", output, len(result.Pages), rotated, len(result.Documents))
}

func isPDF(path string, content []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}

	return bytes.HasPrefix(content, []byte("%PDF"))
}

func progress(label string) client.ProgressFunc {
	return func(percent int) {
		fmt.Fprintf(os.Stderr, "\r\033[K%s %3d%%", label, percent)

		if percent == 100 {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
