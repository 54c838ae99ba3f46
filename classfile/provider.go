package classfile

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrClassNotFound is returned when no classpath location holds the class.
var ErrClassNotFound = errors.New("class not found")

// SerialVersionProvider computes serialVersionUIDs from compiled classes
// found on a classpath of directories and .jar/.zip archives. Locations are
// searched in order; the first hit wins.
type SerialVersionProvider struct {
	Classpath []string
}

func NewSerialVersionProvider(classpath ...string) *SerialVersionProvider {
	return &SerialVersionProvider{Classpath: classpath}
}

// SerialVersionUID takes a binary name such as "a.b.Outer$Inner".
func (p *SerialVersionProvider) SerialVersionUID(binaryName string) (int64, error) {
	cf, err := p.Find(binaryName)
	if err != nil {
		return 0, err
	}
	return cf.SerialVersionUID(), nil
}

// Find locates and parses the class file for binaryName.
func (p *SerialVersionProvider) Find(binaryName string) (*ClassFile, error) {
	entry := BinaryToInternalName(binaryName) + ".class"
	for _, loc := range p.Classpath {
		info, err := os.Stat(loc)
		if err != nil {
			continue
		}
		var cf *ClassFile
		if info.IsDir() {
			cf, err = ParseFile(filepath.Join(loc, filepath.FromSlash(entry)))
		} else {
			cf, err = parseArchiveEntry(loc, entry)
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s in %s: %w", binaryName, loc, err)
		}
		return cf, nil
	}
	return nil, fmt.Errorf("%w: %s (is it compiled and on the classpath?)", ErrClassNotFound, binaryName)
}

func parseArchiveEntry(archive, entry string) (*ClassFile, error) {
	if !IsArchive(archive) {
		return nil, fs.ErrNotExist
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()
	f, err := zr.Open(entry)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// IsArchive reports whether path names a .jar or .zip file.
func IsArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}
