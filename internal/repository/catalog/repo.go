// Package catalog loads the pre-built item catalog from disk: a binary
// vectors file and a JSON Lines metadata file, aligned by position. The
// loaded store is read-only and shared across requests.
package catalog

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/index"
)

// vectorsMagic identifies the catalog vectors file format:
// magic, uint32 version, uint32 dimension, uint32 count,
// then count*dimension little-endian float32 values.
var vectorsMagic = [4]byte{'C', 'D', 'F', 'V'}

const vectorsVersion = 1

// Store holds the catalog items and their embedding index.
type Store struct {
	items []domain.Item
	idx   *index.Flat
}

// Load reads the vectors and metadata files and builds the index.
// Any missing, truncated, or misaligned file is a fatal load error.
func Load(vectorsPath, metadataPath string) (*Store, error) {
	dim, vectors, err := readVectors(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("read vectors %s: %w", vectorsPath, err)
	}

	items, err := readMetadata(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", metadataPath, err)
	}

	if len(items) != len(vectors) {
		return nil, fmt.Errorf("catalog misaligned: %d metadata records, %d vectors",
			len(items), len(vectors))
	}

	idx, err := index.New(dim, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &Store{items: items, idx: idx}, nil
}

// Search runs a k-nearest-neighbor query and resolves hits to candidates.
func (s *Store) Search(vector []float32, k int) ([]domain.Candidate, error) {
	hits, err := s.idx.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	candidates := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = domain.Candidate{
			Position: h.Position,
			Item:     s.items[h.Position],
			Score:    h.Score,
		}
	}
	return candidates, nil
}

// Len returns the number of catalog items.
func (s *Store) Len() int { return len(s.items) }

// Dimension returns the embedding dimensionality of the index.
func (s *Store) Dimension() int { return s.idx.Dimension() }

// Item returns the catalog item at the given position.
func (s *Store) Item(position int) (domain.Item, error) {
	if position < 0 || position >= len(s.items) {
		return domain.Item{}, fmt.Errorf("position %d out of range [0,%d)", position, len(s.items))
	}
	return s.items[position], nil
}

func readVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if magic != vectorsMagic {
		return 0, nil, fmt.Errorf("bad magic %q", magic[:])
	}

	var version, dim, count uint32
	for _, field := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return 0, nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != vectorsVersion {
		return 0, nil, fmt.Errorf("unsupported version %d", version)
	}
	if dim == 0 {
		return 0, nil, fmt.Errorf("zero dimension in header")
	}

	vectors := make([][]float32, count)
	row := make([]byte, dim*4)
	for i := range vectors {
		if _, err := io.ReadFull(r, row); err != nil {
			return 0, nil, fmt.Errorf("truncated vector data at row %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:]))
		}
		vectors[i] = vec
	}

	// Trailing bytes mean the header count lied.
	if _, err := r.ReadByte(); err != io.EOF {
		return 0, nil, fmt.Errorf("unexpected data after %d vectors", count)
	}

	return int(dim), vectors, nil
}

func readMetadata(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []domain.Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec metaRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse metadata line %d: %w", line, err)
		}
		items = append(items, rec.toDomain())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan metadata: %w", err)
	}
	return items, nil
}
