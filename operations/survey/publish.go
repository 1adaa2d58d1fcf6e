package survey

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"gocloud.dev/blob"
	"log/slog"
	"mime"
	"path/filepath"
)

// publish writes body to key in the output bucket.
func (p *SurveyProcessor) publish(ctx context.Context, key string, body []byte) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		// pass
	}

	wr_opts := &blob.WriterOptions{
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
	}

	if p.PublicRead {

		before := func(asFunc func(interface{}) bool) error {

			s3_req := &s3manager.UploadInput{}
			ok := asFunc(&s3_req)

			if ok {
				s3_req.ACL = aws.String("public-read")
			}

			return nil
		}

		wr_opts.BeforeWrite = before
	}

	wr, err := p.Output.NewWriter(ctx, key, wr_opts)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", key, err)
	}

	_, err = wr.Write(body)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to write %s, %w", key, err)
	}

	err = wr.Close()

	if err != nil {
		return fmt.Errorf("Failed to close %s, %w", key, err)
	}

	slog.Debug("Published", "key", key, "bytes", len(body))
	return nil
}
