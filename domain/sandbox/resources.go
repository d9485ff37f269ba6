package sandbox

import (
	"encoding/base64"

	"github.com/texgallery/renderd/domain/job"
)

// Limits bounds the resource payload of a single request.
type Limits struct {
	// MaxResources caps the number of resources per request.
	MaxResources int

	// MaxResourceBytes caps the decoded size of one resource.
	MaxResourceBytes int64

	// MaxTotalBytes caps the cumulative decoded size per request.
	MaxTotalBytes int64
}

// DefaultLimits returns the default payload limits.
func DefaultLimits() Limits {
	return Limits{
		MaxResources:     64,
		MaxResourceBytes: 10 << 20,
		MaxTotalBytes:    32 << 20,
	}
}

// Decoded is a resource with its content decoded and its path cleaned.
type Decoded struct {
	Path string
	Data []byte
}

// DecodeResources validates and decodes every resource in order. The
// cumulative total is threaded through as an accumulator so that many
// small resources cannot slip past the aggregate cap. A per-resource
// violation and a total-size violation produce distinct reasons.
func DecodeResources(limits Limits, resources []job.Resource) ([]Decoded, error) {
	if len(resources) > limits.MaxResources {
		return nil, job.Invalid("too many resources: %d > %d", len(resources), limits.MaxResources)
	}

	decoded := make([]Decoded, 0, len(resources))
	var total int64
	for i, r := range resources {
		cleaned, err := CleanRelPath(r.Path)
		if err != nil {
			return nil, err
		}

		data, err := decodeContent(r)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > limits.MaxResourceBytes {
			return nil, job.Invalid("resource %d (%s) exceeds per-resource limit of %d bytes", i, cleaned, limits.MaxResourceBytes)
		}
		total += int64(len(data))
		if total > limits.MaxTotalBytes {
			return nil, job.Invalid("resources exceed total limit of %d bytes", limits.MaxTotalBytes)
		}

		decoded = append(decoded, Decoded{Path: cleaned, Data: data})
	}
	return decoded, nil
}

func decodeContent(r job.Resource) ([]byte, error) {
	switch r.Encoding {
	case job.EncodingBase64, job.EncodingBytes:
		data, err := base64.StdEncoding.DecodeString(r.Content)
		if err != nil {
			return nil, job.Invalid("resource %s: invalid base64 content", r.Path)
		}
		return data, nil
	case job.EncodingText, "":
		return []byte(r.Content), nil
	}
	return nil, job.Invalid("resource %s: unknown encoding %q", r.Path, r.Encoding)
}
