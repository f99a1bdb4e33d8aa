package fetch

import (
	"context"
	"fmt"
)

// Source kinds.
const (
	KindHTTP = "http"
	KindS3   = "s3"
	KindDir  = "dir"
)

// Source describes where update archives are fetched from.
type Source struct {
	Kind      string
	URL       string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Dir       string
	Headers   map[string]string
}

// New builds the Fetcher described by src.
func New(ctx context.Context, src Source) (Fetcher, error) {
	switch src.Kind {
	case KindHTTP, "":
		if src.URL == "" {
			return nil, fmt.Errorf("http source requires a url")
		}
		var opts []HTTPOption
		for k, v := range src.Headers {
			opts = append(opts, WithHeader(k, v))
		}
		return NewHTTP(src.URL, opts...)
	case KindS3:
		return NewS3(ctx, S3Config{
			Bucket:    src.Bucket,
			Region:    src.Region,
			Endpoint:  src.Endpoint,
			PathStyle: src.PathStyle,
		})
	case KindDir:
		if src.Dir == "" {
			return nil, fmt.Errorf("dir source requires a directory")
		}
		return NewDir(src.Dir), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}
