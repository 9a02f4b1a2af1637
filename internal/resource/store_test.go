package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/data"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
)

func TestFSOpen(t *testing.T) {
	store := NewFS(fstest.MapFS{
		"stop_words.txt": {Data: []byte("的\n了\n")},
	}, "test")

	rc, err := store.Open(context.Background(), "stop_words.txt")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "的\n了\n", string(body))

	_, err = store.Open(context.Background(), "idf_dict.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSOpenHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Embedded().Open(ctx, data.IDFName)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddedBundle(t *testing.T) {
	for _, name := range []string{data.StopWordsName, data.IDFName} {
		rc, err := Embedded().Open(context.Background(), name)
		require.NoError(t, err, name)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body, name)
	}
}

func TestNewSelectsSource(t *testing.T) {
	dir := t.TempDir()

	s, err := New(context.Background(), config.LexiconConfig{Source: "dir", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, s.(*FS).String())

	s, err = New(context.Background(), config.LexiconConfig{Source: "embed"})
	require.NoError(t, err)
	assert.False(t, Remote(s))

	_, err = New(context.Background(), config.LexiconConfig{Source: "dir", Dir: dir + "/missing"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.LexiconConfig{Source: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3Open(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"lexicon/v2/idf_dict.txt": "曹操 9.3\n"}}
	store := NewS3WithClient(client, "nlp-assets", "lexicon/v2")
	assert.True(t, Remote(store))

	rc, err := store.Open(context.Background(), "idf_dict.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "曹操 9.3\n", string(body))

	_, err = store.Open(context.Background(), "stop_words.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []string{"lexicon/v2/idf_dict.txt", "lexicon/v2/stop_words.txt"}, client.keys)
}
