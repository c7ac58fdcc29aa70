package files

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocal(t *testing.T, max int64) (*Local, string) {
	dir := t.TempDir()

	l, err := NewLocal(dir, max)
	require.NoError(t, err)
	return l, dir
}

func TestSaveContentsAndOpen(t *testing.T) {
	l, dir := setupLocal(t, 1024)
	savePath := "sub-1/files/0/pack.zip"
	fileContents := "Hello World"

	n, err := l.Save(savePath, bytes.NewBuffer([]byte(fileContents)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(fileContents)), n)

	_, err = os.Stat(filepath.Join(dir, savePath))
	require.NoError(t, err)

	rc, err := l.Open(savePath)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, fileContents, string(data))
}

func TestSaveExactlyMaxSize(t *testing.T) {
	l, _ := setupLocal(t, 5)

	n, err := l.Save("a/b.bin", strings.NewReader("12345"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestSaveTooLargeLeavesNothing(t *testing.T) {
	l, dir := setupLocal(t, 5)

	_, err := l.Save("a/b.bin", strings.NewReader("123456"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = os.Stat(filepath.Join(dir, "a/b.bin"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file should be removed")
}

func TestRejectsPathsOutsideBase(t *testing.T) {
	l, _ := setupLocal(t, 5)

	_, err := l.Save("../escape.txt", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = l.Open("../../etc/passwd")
	assert.Error(t, err)

	assert.Error(t, l.RemoveAll("."))
}

func TestRemoveAll(t *testing.T) {
	l, dir := setupLocal(t, 1024)

	_, err := l.Save("sub-1/images/0/a.png", strings.NewReader("img"))
	require.NoError(t, err)
	_, err = l.Save("sub-2/files/0/b.zip", strings.NewReader("zip"))
	require.NoError(t, err)

	require.NoError(t, l.RemoveAll("sub-1"))

	_, err = os.Stat(filepath.Join(dir, "sub-1"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "sub-2/files/0/b.zip"))
	assert.NoError(t, err)
}

func TestBlobReopensStagedFile(t *testing.T) {
	l, _ := setupLocal(t, 1024)
	_, err := l.Save("s/f/0/pack.zip", strings.NewReader("payload"))
	require.NoError(t, err)

	b := Blob(l, "s/f/0/pack.zip", "pack.zip", "", 7)
	assert.Equal(t, "application/octet-stream", b.ContentType)

	for i := 0; i < 2; i++ {
		data, err := b.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	}
}
