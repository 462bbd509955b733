package downloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterPreAllocateAndWriteAtOffset(t *testing.T) {
	fw := NewFileWriter()
	path := filepath.Join(t.TempDir(), "out.part")

	require.NoError(t, fw.PreAllocate(path, 10))
	require.NoError(t, fw.Write(path, 5, []byte("hi")))
	require.NoError(t, fw.CloseFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 10)
	assert.Equal(t, []byte("hi"), data[5:7])
}

func TestFileWriterCloseAllClosesEveryHandle(t *testing.T) {
	fw := NewFileWriter()
	p1 := filepath.Join(t.TempDir(), "a.part")
	p2 := filepath.Join(t.TempDir(), "b.part")

	require.NoError(t, fw.PreAllocate(p1, 4))
	require.NoError(t, fw.PreAllocate(p2, 4))

	fw.CloseAll()

	assert.Empty(t, fw.files)
}

func TestFileWriterCloseFileOnUnknownPathIsNoop(t *testing.T) {
	fw := NewFileWriter()
	assert.NoError(t, fw.CloseFile("/nonexistent/path.part"))
}
