package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReaderReportsFractions(t *testing.T) {
	data := make([]byte, 100)
	var seen []float64

	r := newProgressReader(data, func(f float64) { seen = append(seen, f) })

	buf := make([]byte, 25)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.NotEmpty(t, seen)
	assert.Equal(t, 1.0, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress must be monotonic")
	}
}

func TestProgressReaderNilCallback(t *testing.T) {
	r := newProgressReader([]byte("abc"), nil)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)
}

func TestPublicURL(t *testing.T) {
	s := &ObjectStorage{bucketName: "b", publicBaseURL: "https://cdn.example.com"}

	assert.Equal(t,
		"https://cdn.example.com/projects/P1/images/request_1.jpg",
		s.PublicURL("projects/P1/images/request_1.jpg"))
}
