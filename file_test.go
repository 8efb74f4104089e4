package ndsfs

import (
	"errors"
	"io"
	"os"
	"reflect"
	"syscall"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
)

func testFileEntry() *entry {
	return &entry{name: "file1.bin", path: "nitrofs/file1.bin", offset: 0x800, size: 10}
}

func testDirEntry() *entry {
	dir := &entry{name: "nitrofs", path: "nitrofs", isDir: true}
	dir.children = []*entry{
		{name: "a.bin", path: "nitrofs/a.bin", size: 1},
		{name: "b.bin", path: "nitrofs/b.bin", size: 2},
		{name: "c.bin", path: "nitrofs/c.bin", size: 3},
	}
	return dir
}

func TestFile_Read(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := testFileEntry()
	source := NewMockcartSource(ctrl)
	source.EXPECT().readFileAt(e, int64(0), int64(4)).Return([]byte("abcd"), nil)
	source.EXPECT().readFileAt(e, int64(4), int64(4)).Return([]byte("efgh"), nil)

	f := &File{fs: source, entry: e}

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 4 || string(buf) != "abcd" {
		t.Errorf("Read() = %d %q, want 4 %q", n, buf, "abcd")
	}

	// The offset advanced, so the next read continues behind it.
	n, err = f.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 4 || string(buf) != "efgh" {
		t.Errorf("Read() = %d %q, want 4 %q", n, buf, "efgh")
	}
}

func TestFile_ReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cause := errors.New("read failed")

	e := testFileEntry()
	source := NewMockcartSource(ctrl)
	source.EXPECT().readFileAt(e, int64(0), int64(4)).Return([]byte("ab"), cause)

	f := &File{fs: source, entry: e}

	n, err := f.Read(make([]byte, 4))
	if n != 2 {
		t.Errorf("Read() = %d, want the partial length 2", n)
	}
	if !errors.Is(err, ErrReadFile) {
		t.Errorf("Read() error = %v, want %v", err, ErrReadFile)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Read() error = %v does not keep the cause %v", err, cause)
	}
}

func TestFile_ReadEdgeCases(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No source call is expected for any of these.
	source := NewMockcartSource(ctrl)

	f := &File{fs: source, entry: testFileEntry()}

	if n, err := f.Read(nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = %d, %v, want 0, nil", n, err)
	}

	f.offset = 10
	if _, err := f.Read(make([]byte, 4)); err != io.EOF {
		t.Errorf("Read() past the end error = %v, want %v", err, io.EOF)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := f.Read(make([]byte, 4)); !errors.Is(err, afero.ErrFileClosed) {
		t.Errorf("Read() after close error = %v, want %v", err, afero.ErrFileClosed)
	}
}

func TestFile_ReadAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := testFileEntry()
	source := NewMockcartSource(ctrl)
	source.EXPECT().readFileAt(e, int64(6), int64(4)).Return([]byte("ghij"), nil)

	f := &File{fs: source, entry: e}

	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 6)
	if err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if n != 4 || string(buf) != "ghij" {
		t.Errorf("ReadAt() = %d %q, want 4 %q", n, buf, "ghij")
	}

	// ReadAt does not move the read offset.
	if f.offset != 0 {
		t.Errorf("ReadAt() moved the offset to %d", f.offset)
	}

	if _, err := f.ReadAt(buf, 10); err != io.EOF {
		t.Errorf("ReadAt() past the end error = %v, want %v", err, io.EOF)
	}
}

func TestFile_Seek(t *testing.T) {
	tests := []struct {
		name    string
		start   int64
		offset  int64
		whence  int
		want    int64
		wantErr error
	}{
		{
			name:   "start",
			offset: 5,
			whence: io.SeekStart,
			want:   5,
		},
		{
			name:   "current",
			start:  5,
			offset: 2,
			whence: io.SeekCurrent,
			want:   7,
		},
		{
			name:   "end",
			offset: -3,
			whence: io.SeekEnd,
			want:   7,
		},
		{
			name:   "to the very end",
			offset: 0,
			whence: io.SeekEnd,
			want:   10,
		},
		{
			name:    "before the start",
			offset:  -1,
			whence:  io.SeekStart,
			wantErr: afero.ErrOutOfRange,
		},
		{
			name:    "past the end",
			offset:  11,
			whence:  io.SeekStart,
			wantErr: afero.ErrOutOfRange,
		},
		{
			name:    "invalid whence",
			offset:  0,
			whence:  42,
			wantErr: syscall.EINVAL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := &File{fs: NewMockcartSource(ctrl), entry: testFileEntry(), offset: tt.start}

			got, err := f.Seek(tt.offset, tt.whence)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Seek() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("Seek() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFile_SeekClosed(t *testing.T) {
	f := &File{}
	if _, err := f.Seek(0, io.SeekStart); !errors.Is(err, afero.ErrFileClosed) {
		t.Errorf("Seek() error = %v, want %v", err, afero.ErrFileClosed)
	}
}

func TestFile_Readdir(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := testDirEntry()
	all := make([]os.FileInfo, len(dir.children))
	for i, child := range dir.children {
		all[i] = entryFileInfo{child}
	}

	source := NewMockcartSource(ctrl)
	source.EXPECT().readDirInfo(dir).Return(all, nil).AnyTimes()

	f := &File{fs: source, entry: dir}

	got, err := f.Readdir(2)
	if err != nil {
		t.Fatalf("Readdir(2) error = %v", err)
	}
	if !reflect.DeepEqual(got, all[:2]) {
		t.Errorf("Readdir(2) = %v, want the first two entries", got)
	}

	got, err = f.Readdir(2)
	if err != nil {
		t.Fatalf("Readdir(2) error = %v", err)
	}
	if !reflect.DeepEqual(got, all[2:]) {
		t.Errorf("Readdir(2) = %v, want the last entry", got)
	}

	if _, err := f.Readdir(2); err != io.EOF {
		t.Errorf("Readdir(2) on the exhausted directory error = %v, want %v", err, io.EOF)
	}
}

func TestFile_ReaddirAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := testDirEntry()
	all := make([]os.FileInfo, len(dir.children))
	for i, child := range dir.children {
		all[i] = entryFileInfo{child}
	}

	source := NewMockcartSource(ctrl)
	source.EXPECT().readDirInfo(dir).Return(all, nil).AnyTimes()

	f := &File{fs: source, entry: dir}

	got, err := f.Readdir(-1)
	if err != nil {
		t.Fatalf("Readdir(-1) error = %v", err)
	}
	if !reflect.DeepEqual(got, all) {
		t.Errorf("Readdir(-1) = %v, want all entries", got)
	}

	// A negative count never returns io.EOF, just nothing.
	got, err = f.Readdir(-1)
	if err != nil {
		t.Fatalf("Readdir(-1) again error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Readdir(-1) again = %v, want no entries", got)
	}
}

func TestFile_ReaddirErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := &File{fs: NewMockcartSource(ctrl), entry: testFileEntry()}
	if _, err := f.Readdir(-1); !errors.Is(err, syscall.ENOTDIR) {
		t.Errorf("Readdir() on a file error = %v, want %v", err, syscall.ENOTDIR)
	}

	closed := &File{}
	if _, err := closed.Readdir(-1); !errors.Is(err, afero.ErrFileClosed) {
		t.Errorf("Readdir() after close error = %v, want %v", err, afero.ErrFileClosed)
	}
}

func TestFile_Readdirnames(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := testDirEntry()
	all := make([]os.FileInfo, len(dir.children))
	for i, child := range dir.children {
		all[i] = entryFileInfo{child}
	}

	source := NewMockcartSource(ctrl)
	source.EXPECT().readDirInfo(dir).Return(all, nil)

	f := &File{fs: source, entry: dir}

	names, err := f.Readdirnames(-1)
	if err != nil {
		t.Fatalf("Readdirnames() error = %v", err)
	}
	if want := []string{"a.bin", "b.bin", "c.bin"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Readdirnames() = %v, want %v", names, want)
	}
}

func TestFile_WriteOperations(t *testing.T) {
	f := &File{entry: testFileEntry()}

	if _, err := f.Write([]byte("x")); !errors.Is(err, syscall.EPERM) {
		t.Errorf("Write() error = %v, want %v", err, syscall.EPERM)
	}
	if _, err := f.WriteAt([]byte("x"), 0); !errors.Is(err, syscall.EPERM) {
		t.Errorf("WriteAt() error = %v, want %v", err, syscall.EPERM)
	}
	if _, err := f.WriteString("x"); !errors.Is(err, syscall.EPERM) {
		t.Errorf("WriteString() error = %v, want %v", err, syscall.EPERM)
	}
	if err := f.Truncate(0); !errors.Is(err, syscall.EPERM) {
		t.Errorf("Truncate() error = %v, want %v", err, syscall.EPERM)
	}
	if err := f.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestFile_NameAndStat(t *testing.T) {
	f := &File{entry: testFileEntry()}

	if got := f.Name(); got != "file1.bin" {
		t.Errorf("Name() = %q, want %q", got, "file1.bin")
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Name() != "file1.bin" || info.Size() != 10 {
		t.Errorf("Stat() = %q/%d, want file1.bin/10", info.Name(), info.Size())
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := f.Name(); got != "" {
		t.Errorf("Name() after close = %q, want the empty string", got)
	}
	if _, err := f.Stat(); !errors.Is(err, afero.ErrFileClosed) {
		t.Errorf("Stat() after close error = %v, want %v", err, afero.ErrFileClosed)
	}
}
