package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZacxDev/video-captioner/internal/capture"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

func recording() *capture.Recording {
	return &capture.Recording{
		Chunks:    [][]byte{[]byte("ab"), []byte("cd")},
		MimeType:  "video/webm; codecs=vp9",
		Extension: ".webm",
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		source string
		ext    string
		want   string
	}{
		{"/videos/My Clip (final).mp4", ".webm", "My_Clip_final_captioned.webm"},
		{"talk.mov", ".mp4", "talk_captioned.mp4"},
		{"../???.mp4", ".webm", "video_captioned.webm"},
	}
	for _, tt := range tests {
		if got := ObjectName(tt.source, tt.ext); got != tt.want {
			t.Errorf("ObjectName(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestLocalStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store := NewLocalStore(dir, nil)

	art, err := store.Save(context.Background(), "clip_captioned.webm", recording())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(art.URL, "file://") || !strings.HasSuffix(art.URL, "/clip_captioned.webm") {
		t.Errorf("URL = %q", art.URL)
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "abcd" || art.Size != 4 {
		t.Errorf("artifact = %q (%d bytes)", data, art.Size)
	}
	if _, err := os.Stat(art.Path + ".part"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestLocalStoreRejectsEmpty(t *testing.T) {
	store := NewLocalStore(t.TempDir(), nil)
	if _, err := store.Save(context.Background(), "x.webm", &capture.Recording{}); err == nil {
		t.Fatal("expected error for empty recording")
	}
}

type fakeS3 struct {
	put        *s3.PutObjectInput
	body       string
	putErr     error
	presigned  *s3.GetObjectInput
	expires    time.Duration
	presignErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	f.presigned = in
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + *in.Key + "?X-Amz-Signature=sig", Method: "GET"}, nil
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, fake, S3Options{Bucket: "clips", Prefix: "captioned", Expires: 10 * time.Minute}, nil)

	art, err := store.Save(context.Background(), "clip_captioned.webm", recording())
	if err != nil {
		t.Fatal(err)
	}
	key := *fake.put.Key
	if !strings.HasPrefix(key, "captioned/") || !strings.HasSuffix(key, "/clip_captioned.webm") {
		t.Errorf("key = %q", key)
	}
	if *fake.put.Bucket != "clips" || *fake.put.ContentType != "video/webm; codecs=vp9" {
		t.Errorf("put = bucket %q type %q", *fake.put.Bucket, *fake.put.ContentType)
	}
	if fake.body != "abcd" {
		t.Errorf("body = %q", fake.body)
	}
	if *fake.presigned.Key != key || fake.expires != 10*time.Minute {
		t.Errorf("presigned %q for %v", *fake.presigned.Key, fake.expires)
	}
	if art.URL == "" || art.Key != key || art.Path != "" {
		t.Errorf("artifact = %+v", art)
	}
}

func TestS3StoreErrors(t *testing.T) {
	store := newS3Store(&fakeS3{putErr: errors.New("denied")}, &fakeS3{}, S3Options{Bucket: "b"}, nil)
	if _, err := store.Save(context.Background(), "a.webm", recording()); err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("put failure = %v", err)
	}

	ok := &fakeS3{}
	store = newS3Store(ok, &fakeS3{presignErr: errors.New("no creds")}, S3Options{Bucket: "b"}, nil)
	if _, err := store.Save(context.Background(), "a.webm", recording()); err == nil {
		t.Error("presign failure ignored")
	}
	if store.expires != DefaultPresignExpiry {
		t.Errorf("default expiry = %v", store.expires)
	}
}
