// tree-survey maps a directory of geotagged tree photographs, joined with a CSV of trunk girths, and reports on the
// distribution of those girths.
package main

import (
	"context"
	"github.com/sfomuseum/go-tree-survey/config"
	"github.com/sfomuseum/go-tree-survey/metadata"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	"github.com/sfomuseum/go-tree-survey/operations/survey"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	"log"
	"log/slog"
	"os"
)

func main() {

	err := config.LoadEnv(".env")

	if err != nil {
		log.Fatalf("Failed to load environment, %v", err)
	}

	fs, opts := config.NewFlagSet("tree-survey")
	fs.Parse(os.Args[1:])

	if opts.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}

	settings, err := opts.Validate()

	if err != nil {
		log.Fatalf("Invalid options, %v", err)
	}

	ctx := context.Background()

	photos, err := gather.OpenBucket(ctx, opts.PhotosURI)

	if err != nil {
		log.Fatalf("Failed to open photos, %v", err)
	}

	defer photos.Close()

	output, err := blob.OpenBucket(ctx, opts.OutputURI)

	if err != nil {
		log.Fatalf("Failed to open output bucket, %v", err)
	}

	defer output.Close()

	p := &survey.SurveyProcessor{
		Photos:              photos,
		Output:              output,
		GirthsReaderURI:     opts.GirthsURI,
		GirthsPath:          opts.GirthsFile,
		FeaturesWriterURI:   opts.FeaturesURI,
		PreviousFeaturesURI: opts.PreviousURI,
		Pattern:             opts.Pattern,
		Join:                settings.Join,
		MissingLocation:     settings.MissingLocation,
		InvalidCoordinates:  settings.InvalidCoordinates,
		Metadata: &metadata.ReadOptions{
			Location: settings.Location,
		},
		HashImages:    opts.HashImages,
		Thumbnails:    opts.Thumbnails,
		ThumbnailSize: opts.ThumbnailSize,
		PublicRead:    opts.PublicRead,
		Summary:       settings.Summary,
		Bins:          opts.Bins,
	}

	result, err := p.Survey(ctx)

	if err != nil {
		log.Fatalf("Failed to run survey, %v", err)
	}

	for _, key := range result.Artifacts {
		slog.Info("Wrote output", "key", key)
	}
}
