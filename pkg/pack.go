package pkg

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// Compression selects the archive compression algorithm.
type Compression string

const (
	// CompressXz produces .tar.xz archives.
	CompressXz Compression = "xz"
	// CompressBrotli produces .tar.br archives.
	CompressBrotli Compression = "br"
)

// ParseCompression validates a user-supplied compression name.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case CompressXz:
		return CompressXz, nil
	case CompressBrotli:
		return CompressBrotli, nil
	}
	return "", eris.Errorf("unsupported compression %q (expected xz or br)", name)
}

type archiveEntry struct {
	path string
	name string
	info fs.FileInfo
}

func collectEntries(inputs []string) ([]archiveEntry, int64, error) {
	entries := make([]archiveEntry, 0, len(inputs))
	var total int64

	for _, input := range inputs {
		input = filepath.Clean(input)
		base := filepath.Dir(input)

		err := filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			name, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}

			entries = append(entries, archiveEntry{
				path: path,
				name: filepath.ToSlash(name),
				info: info,
			})
			total += info.Size()
			return nil
		})
		if err != nil {
			return nil, 0, eris.Wrapf(err, "failed to collect %s", input)
		}
	}

	if len(entries) == 0 {
		return nil, 0, eris.New("nothing to pack")
	}
	return entries, total, nil
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// WriteArchive packs the given files and directories into a compressed tar
// archive at outPath. Directory inputs are walked recursively; file modes
// are preserved. Any error aborts the archive.
func WriteArchive(outPath string, inputs []string, compression Compression) error {
	entries, total, err := collectEntries(inputs)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", outPath)
	}
	defer out.Close()

	var compressor io.WriteCloser
	switch compression {
	case CompressBrotli:
		compressor = brotli.NewWriterLevel(out, brotli.BestCompression)
	default:
		compressor, err = xz.NewWriter(out)
		if err != nil {
			return eris.Wrap(err, "failed to initialize the xz writer")
		}
	}

	bar := getProgressBar(total, "Packing")
	tw := tar.NewWriter(compressor)

	for _, entry := range entries {
		header, err := tar.FileInfoHeader(entry.info, "")
		if err != nil {
			return eris.Wrapf(err, "failed to build header for %s", entry.path)
		}
		header.Name = entry.name

		if err := tw.WriteHeader(header); err != nil {
			return eris.Wrapf(err, "failed to write header for %s", entry.path)
		}

		handle, err := os.Open(entry.path)
		if err != nil {
			return eris.Wrapf(err, "failed to open %s", entry.path)
		}

		_, err = io.Copy(io.MultiWriter(tw, bar), handle)
		handle.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to pack %s", entry.path)
		}
	}

	if err := tw.Close(); err != nil {
		return eris.Wrap(err, "failed to finalize the archive")
	}
	if err := compressor.Close(); err != nil {
		return eris.Wrap(err, "failed to flush the compressor")
	}
	return out.Close()
}
