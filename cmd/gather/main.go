// gather prints the fingerprint, image hashes and EXIF metadata of every photograph in one or more
// gocloud.dev/blob URIs, as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"github.com/sfomuseum/go-tree-survey/metadata"
	"github.com/sfomuseum/go-tree-survey/operations/gather"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	"log"
	"log/slog"
)

func main() {

	pattern := flag.String("pattern", gather.DefaultPattern, "A filename glob used to select photographs (case-insensitive).")
	hash_images := flag.Bool("hash-images", true, "Derive perceptual image hashes.")
	verbose := flag.Bool("verbose", false, "Enable verbose (debug level) logging.")

	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx := context.Background()

	cb := func(ctx context.Context, rsp *gather.GatherImagesResponse) error {

		enc, err := json.Marshal(rsp)

		if err != nil {
			return err
		}

		fmt.Println(string(enc))
		return nil
	}

	opts := &gather.GatherImagesOptions{
		Pattern:    *pattern,
		HashImages: *hash_images,
		Metadata:   &metadata.ReadOptions{},
		Callback:   cb,
	}

	for _, uri := range flag.Args() {

		slog.Debug("Gather images", "uri", uri)

		bucket, err := gather.OpenBucket(ctx, uri)

		if err != nil {
			log.Fatal(err)
		}

		_, err = gather.GatherImages(ctx, bucket, opts)

		bucket.Close()

		if err != nil {
			log.Fatal(err)
		}
	}
}
