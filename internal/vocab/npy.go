package vocab

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// npyMagic is the leading magic string of every NumPy .npy file.
var npyMagic = []byte("\x93NUMPY")

// FileSource loads the vocabulary from precomputed artifacts on disk:
// a 2-D float32/float64 .npy embedding matrix and a plain-text word list
// with one word per line, index-aligned with the matrix rows.
type FileSource struct {
	EmbeddingsPath string
	WordsPath      string
}

// Load implements Source.
func (f FileSource) Load(ctx context.Context) ([]string, [][]float32, error) {
	vectors, err := ReadNPYMatrix(f.EmbeddingsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("embeddings %q: %w", f.EmbeddingsPath, err)
	}
	words, err := ReadWordList(f.WordsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("word list %q: %w", f.WordsPath, err)
	}
	return words, vectors, nil
}

// ReadWordList reads a word list file with one word per line.
// Blank lines are skipped.
func ReadWordList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ReadNPYMatrix reads a 2-D float32 or float64 matrix from a NumPy .npy
// file (format versions 1.0 and 2.0, C order, little-endian). float64 data
// is narrowed to float32.
func ReadNPYMatrix(path string) ([][]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	r := bufio.NewReader(file)
	return parseNPYMatrix(r)
}

func parseNPYMatrix(r io.Reader) ([][]float32, error) {
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("npy: short header: %w", err)
	}
	if !bytes.Equal(magic[:6], npyMagic) {
		return nil, fmt.Errorf("npy: bad magic %q", magic[:6])
	}

	major := magic[6]
	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("npy: header length: %w", err)
		}
		headerLen = int(n)
	case 2:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("npy: header length: %w", err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("npy: unsupported format version %d", major)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("npy: short header dict: %w", err)
	}

	descr, fortran, shape, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, fmt.Errorf("npy: fortran-order arrays are not supported")
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("npy: want a 2-D matrix, got shape %v", shape)
	}

	var itemSize int
	switch descr {
	case "<f4", "|f4", "f4":
		itemSize = 4
	case "<f8", "|f8", "f8":
		itemSize = 8
	default:
		return nil, fmt.Errorf("npy: unsupported dtype %q", descr)
	}

	rows, cols := shape[0], shape[1]
	data := make([]byte, rows*cols*itemSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("npy: short data section: %w", err)
	}

	matrix := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		row := make([]float32, cols)
		for j := 0; j < cols; j++ {
			off := (i*cols + j) * itemSize
			if itemSize == 4 {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			} else {
				row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(data[off:])))
			}
		}
		matrix[i] = row
	}
	return matrix, nil
}

// parseNPYHeader parses the python-dict header of an .npy file, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (120, 50), }
// A full python parser is not needed: the writer emits a fixed key order
// and quoting style, so targeted string scanning is sufficient.
func parseNPYHeader(header string) (descr string, fortran bool, shape []int, err error) {
	descr, err = npyHeaderValue(header, "descr")
	if err != nil {
		return "", false, nil, err
	}

	order, err := npyHeaderValue(header, "fortran_order")
	if err != nil {
		return "", false, nil, err
	}
	fortran = strings.EqualFold(order, "true")

	rawShape, err := npyHeaderValue(header, "shape")
	if err != nil {
		return "", false, nil, err
	}
	for _, part := range strings.Split(rawShape, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n < 0 {
			return "", false, nil, fmt.Errorf("npy: bad shape element %q", part)
		}
		shape = append(shape, n)
	}
	return descr, fortran, shape, nil
}

// npyHeaderValue extracts the value for a single key from the header dict.
func npyHeaderValue(header, key string) (string, error) {
	idx := strings.Index(header, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("npy: header is missing %q", key)
	}
	rest := header[idx+len(key)+2:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("npy: malformed header near %q", key)
	}
	rest = strings.TrimSpace(rest[colon+1:])

	switch {
	case strings.HasPrefix(rest, "'"):
		end := strings.Index(rest[1:], "'")
		if end < 0 {
			return "", fmt.Errorf("npy: unterminated string for %q", key)
		}
		return rest[1 : 1+end], nil
	case strings.HasPrefix(rest, "("):
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", fmt.Errorf("npy: unterminated tuple for %q", key)
		}
		return rest[1:end], nil
	default:
		end := strings.IndexAny(rest, ",}")
		if end < 0 {
			end = len(rest)
		}
		return strings.TrimSpace(rest[:end]), nil
	}
}

// WriteNPYMatrix writes a 2-D float32 matrix as a version 1.0 .npy file.
// Used by tooling and tests to produce embedding artifacts.
func WriteNPYMatrix(path string, matrix [][]float32) error {
	if len(matrix) == 0 {
		return fmt.Errorf("npy: refusing to write empty matrix")
	}
	cols := len(matrix[0])

	headerDict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", len(matrix), cols)
	// Pad with spaces so that the total header size is a multiple of 64,
	// terminated by a newline, per the .npy format spec.
	total := len(npyMagic) + 2 + 2 + len(headerDict) + 1
	pad := (64 - total%64) % 64
	headerDict += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(headerDict))); err != nil {
		return err
	}
	buf.WriteString(headerDict)

	for i, row := range matrix {
		if len(row) != cols {
			return fmt.Errorf("npy: row %d has %d columns, want %d", i, len(row), cols)
		}
		for _, v := range row {
			if err := binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return err
			}
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
