// Package main provides the CLI entry point for pivotseg.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

var version = "dev"

// Flag categories.
const (
	catInput     = "Input and Output"
	catPrompt    = "Prompt"
	catSegmenter = "Segmenter"
	catRemover   = "Object Removal"
	catEncoding  = "Frames and Encoding"
	catReport    = "Debug and Reporting"
	catLogging   = "Logging"
)

func main() {
	app := &cli.App{
		Name:    "pivotseg",
		Usage:   l10n.T("Segment an object through a video from any frame"),
		Version: version,
		Description: l10n.T("pivotseg propagates a mask from an annotated pivot frame " +
			"backward to the first frame and forward to the last frame."),
		Commands: []*cli.Command{
			{
				Name:      "segment",
				Usage:     l10n.T("Segment an object and render the result"),
				ArgsUsage: " ",
				Flags:     append(commonFlags(), renderFlags()...),
				Action:    segmentAction,
			},
			{
				Name:      "remove",
				Usage:     l10n.T("Segment an object and erase it from the video"),
				ArgsUsage: " ",
				Flags:     append(commonFlags(), removerFlags()...),
				Action:    removeAction,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("pivotseg version %s", version))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		// Input and output
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: l10n.T("Input video path"), Category: l10n.T(catInput)},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: l10n.T("Directory for output videos (default: next to the input)"), Category: l10n.T(catInput)},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(catInput)},
		&cli.StringFlag{Name: "work-dir", Usage: l10n.T("Parent directory for temporary files"), Category: l10n.T(catInput)},

		// Prompt
		&cli.IntFlag{Name: "pivot", Aliases: []string{"p"}, Usage: l10n.T("Index of the annotated frame"), Required: true, Category: l10n.T(catPrompt)},
		&cli.StringSliceFlag{Name: "point", Usage: l10n.T("Prompt point as x:y (repeatable)"), Category: l10n.T(catPrompt)},
		&cli.IntSliceFlag{Name: "label", Usage: l10n.T("Point label, 1 foreground or 0 background (repeatable)"), Category: l10n.T(catPrompt)},
		&cli.StringFlag{Name: "box", Usage: l10n.T("Prompt box as x1,y1,x2,y2"), Category: l10n.T(catPrompt)},
		&cli.IntFlag{Name: "object-id", Usage: l10n.T("Object id assigned to the prompt"), Category: l10n.T(catPrompt)},

		// Segmenter
		&cli.StringFlag{Name: "python", Usage: l10n.T("Python interpreter for helper processes"), Category: l10n.T(catSegmenter)},
		&cli.StringFlag{Name: "checkpoint", Usage: l10n.T("SAM 2 checkpoint path"), Category: l10n.T(catSegmenter)},
		&cli.StringFlag{Name: "model-config", Usage: l10n.T("SAM 2 model config"), Category: l10n.T(catSegmenter)},
		&cli.StringFlag{Name: "device", Usage: l10n.T("Inference device (cuda, mps, cpu)"), Category: l10n.T(catSegmenter)},
		&cli.BoolFlag{Name: "concurrent", Usage: l10n.T("Run the reverse and forward sessions concurrently"), Category: l10n.T(catSegmenter)},

		// Frames and encoding
		&cli.StringFlag{Name: "ffmpeg", Usage: l10n.T("Path to ffmpeg"), Category: l10n.T(catEncoding)},
		&cli.Float64Flag{Name: "framerate", Usage: l10n.T("Frame rate of output videos"), Category: l10n.T(catEncoding)},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: l10n.T("Compositor worker count"), Category: l10n.T(catEncoding)},

		// Debug and reporting
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save intermediate results"), Category: l10n.T(catReport)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(catReport)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a Markdown run summary to this path"), Category: l10n.T(catReport)},
		&cli.StringFlag{Name: "metrics-file", Usage: l10n.T("Write Prometheus metrics to this textfile"), Category: l10n.T(catReport)},

		// Logging
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "render",
			Aliases:  []string{"r"},
			Usage:    l10n.T("Render modes: colored, silhouette, original_on_white"),
			Value:    cli.NewStringSlice("colored"),
			Category: l10n.T(catInput),
		},
	}
}

func removerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "script", Usage: l10n.T("Inpainting script path"), Category: l10n.T(catRemover)},
		&cli.StringFlag{Name: "inpaint-model", Usage: l10n.T("Inpainting model name"), Category: l10n.T(catRemover)},
		&cli.StringFlag{Name: "inpaint-checkpoint", Usage: l10n.T("Inpainting checkpoint path"), Category: l10n.T(catRemover)},
	}
}
