package editor

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

func waitUpload(t *testing.T, u *Upload) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-u.Done():
	case <-ctx.Done():
		t.Fatal("upload did not resolve")
	}
	return u.Wait(ctx)
}

func TestInsertImage_Success(t *testing.T) {
	up := newFakeUploader()
	var log changeLog
	s := New("", log.record, WithUploader(up), WithMediaFolder("static/media"))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("cat")})
	require.NoError(t, err)
	assert.Equal(t, "![cat.png](Uploading cat.png...) ", s.CurrentText())
	assert.False(t, s.Editable())

	up.gate("cat") <- uploadResult{url: "https://x/cat.png"}
	url, err := waitUpload(t, u)
	require.NoError(t, err)
	assert.Equal(t, "https://x/cat.png", url)

	text := s.CurrentText()
	assert.Equal(t, "![cat.png](https://x/cat.png) ", text)
	assert.NotContains(t, text, "Uploading")
	assert.Equal(t, 1, strings.Count(text, "![cat.png](https://x/cat.png)"))
	assert.True(t, s.Editable())
	assert.Equal(t, []docmodel.Range{docmodel.Caret(len([]rune(text)))}, s.Selection().Ranges)
	assert.Equal(t, []string{"static/media"}, up.folders)
	assert.Equal(t, []string{"![cat.png](Uploading cat.png...) ", text}, log.all())
}

func TestInsertImage_Failure(t *testing.T) {
	up := newFakeUploader()
	s := New("intro\n", nil, WithUploader(up))
	require.NoError(t, s.Select(docmodel.Caret(6)))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("cat")})
	require.NoError(t, err)

	up.gate("cat") <- uploadResult{err: errors.UploadError("quota exceeded").Build()}
	_, err = waitUpload(t, u)
	require.Error(t, err)

	text := s.CurrentText()
	assert.Equal(t, "intro\n![cat.png](Upload failed: quota exceeded) ", text)
	assert.Equal(t, 1, strings.Count(text, "Upload failed:"))
	assert.NotContains(t, text, "Uploading")
	assert.True(t, s.Editable())
}

func TestInsertImage_PlainErrorMessage(t *testing.T) {
	up := newFakeUploader()
	s := New("", nil, WithUploader(up))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "a.png", Data: []byte("a")})
	require.NoError(t, err)
	up.gate("a") <- uploadResult{err: stderrors.New("connection reset (peer)\nretry later")}
	_, _ = waitUpload(t, u)

	assert.Equal(t, "![a.png](Upload failed: connection reset [peer] retry later) ", s.CurrentText())
}

func TestInsertImage_EmptyURLIsFailure(t *testing.T) {
	up := newFakeUploader()
	s := New("", nil, WithUploader(up))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "a.png", Data: []byte("a")})
	require.NoError(t, err)
	up.gate("a") <- uploadResult{url: "  "}
	_, err = waitUpload(t, u)
	require.Error(t, err)
	assert.Contains(t, s.CurrentText(), "Upload failed: upload returned no download URL")
}

func TestInsertImage_UploaderPanicRestoresEditability(t *testing.T) {
	s := New("", nil, WithUploader(UploaderFunc(func(context.Context, []byte, string, string) (string, error) {
		panic("uploader exploded")
	})))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png"})
	require.NoError(t, err)
	_, err = waitUpload(t, u)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryUpload))

	assert.Equal(t, "![cat.png](Upload failed: upload aborted unexpectedly) ", s.CurrentText())
	assert.True(t, s.Editable())
	require.NoError(t, s.Dispatch(Bold()))
}

func TestInsertImage_DocumentReadOnlyWhilePending(t *testing.T) {
	up := newFakeUploader()
	s := New("hello", nil, WithUploader(up))
	require.NoError(t, s.Select(docmodel.Caret(5)))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("cat")})
	require.NoError(t, err)
	before := s.CurrentText()

	err = s.Dispatch(Bold())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryReadOnly))

	err = s.ReplaceSelection("typed")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryReadOnly))
	assert.Equal(t, before, s.CurrentText())

	require.NoError(t, s.Select(docmodel.Caret(0)), "selection moves are allowed")
	assert.Equal(t, 1, s.Snapshot().PendingUploads)

	up.gate("cat") <- uploadResult{url: "https://x/cat.png"}
	_, err = waitUpload(t, u)
	require.NoError(t, err)
	assert.Equal(t, "hello![cat.png](https://x/cat.png) ", s.CurrentText())
	require.NoError(t, s.ReplaceSelection(">"))
	assert.Equal(t, ">hello![cat.png](https://x/cat.png) ", s.CurrentText())
}

func TestInsertImage_ConcurrentSameName(t *testing.T) {
	up := newFakeUploader()
	s := New("", nil, WithUploader(up))

	first, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("one")})
	require.NoError(t, err)
	second, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("two")})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, strings.Repeat(PlaceholderText("cat.png"), 2), s.CurrentText())

	up.gate("two") <- uploadResult{url: "https://x/two.png"}
	_, err = waitUpload(t, second)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderText("cat.png")+ImageText("cat.png", "https://x/two.png"), s.CurrentText())
	assert.False(t, s.Editable(), "first upload still pending")

	up.gate("one") <- uploadResult{url: "https://x/one.png"}
	_, err = waitUpload(t, first)
	require.NoError(t, err)
	assert.Equal(t, ImageText("cat.png", "https://x/one.png")+ImageText("cat.png", "https://x/two.png"), s.CurrentText())
	assert.True(t, s.Editable())
}

func TestInsertImage_FallsBackToSearch(t *testing.T) {
	up := newFakeUploader()
	s := New("", nil, WithUploader(up))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("cat")})
	require.NoError(t, err)

	s.mu.Lock()
	s.doc, _ = s.doc.Apply([]docmodel.Change{docmodel.Insertion(0, "moved ")})
	s.mu.Unlock()

	up.gate("cat") <- uploadResult{url: "u"}
	_, err = waitUpload(t, u)
	require.NoError(t, err)
	assert.Equal(t, "moved ![cat.png](u) ", s.CurrentText())
}

func TestInsertImage_DropsResultWhenPlaceholderGone(t *testing.T) {
	up := newFakeUploader()
	var log changeLog
	s := New("", log.record, WithUploader(up))

	u, err := s.InsertImage(context.Background(), ImageFile{Name: "cat.png", Data: []byte("cat")})
	require.NoError(t, err)

	s.mu.Lock()
	s.doc = docmodel.New("replaced elsewhere")
	s.mu.Unlock()

	up.gate("cat") <- uploadResult{url: "u"}
	_, err = waitUpload(t, u)
	require.NoError(t, err)
	assert.Equal(t, "replaced elsewhere", s.CurrentText())
	assert.True(t, s.Editable())
	assert.Len(t, log.all(), 1, "only the placeholder insertion was announced")
}

func TestInsertImage_Validation(t *testing.T) {
	s := New("", nil)
	_, err := s.InsertImage(context.Background(), ImageFile{Name: "a.png"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryUpload))

	s = New("", nil, WithUploader(newFakeUploader()))
	_, err = s.InsertImage(context.Background(), ImageFile{Name: "  "})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Empty(t, s.CurrentText())
}

func TestDispatch_ImageCommand(t *testing.T) {
	up := newFakeUploader()
	s := New("", nil, WithUploader(up))

	require.NoError(t, s.Dispatch(Image(ImageFile{Name: "dog.png", Data: []byte("dog")})))
	assert.Equal(t, PlaceholderText("dog.png"), s.CurrentText())
	up.gate("dog") <- uploadResult{url: "https://x/dog.png"}

	assert.Eventually(t, s.Editable, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, ImageText("dog.png", "https://x/dog.png"), s.CurrentText())

	require.Error(t, s.Dispatch(Command{Name: CmdImage}))
}

// syncBuffer is a log sink safe for the upload goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInsertImage_LogsPendingCount(t *testing.T) {
	up := newFakeUploader()
	var out syncBuffer
	s := New("", nil, WithUploader(up), WithLogger(slog.New(slog.NewTextHandler(&out, nil))))

	first, err := s.InsertImage(context.Background(), ImageFile{Name: "a.png", Data: []byte("one")})
	require.NoError(t, err)
	second, err := s.InsertImage(context.Background(), ImageFile{Name: "b.png", Data: []byte("two")})
	require.NoError(t, err)

	up.gate("one") <- uploadResult{err: stderrors.New("quota exceeded")}
	_, err = waitUpload(t, first)
	require.Error(t, err)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `msg="Image upload failed"`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "pending=1")

	up.gate("two") <- uploadResult{url: "https://x/b.png"}
	_, err = waitUpload(t, second)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `msg="Image upload completed"`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "pending=0")
	assert.Contains(t, out.String(), "upload_id="+second.ID())
}
