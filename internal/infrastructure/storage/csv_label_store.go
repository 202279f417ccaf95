package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

// labelColumns — заголовок файла меток.
var labelColumns = []string{"image_name", "x", "y", "width", "height", "defect_type"}

// CSVLabelStore хранит размеченные примеры в CSV-файле только на дозапись.
type CSVLabelStore struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewCSVLabelStore открывает файл меток, создаёт его с заголовком при необходимости.
func NewCSVLabelStore(path string) (*CSVLabelStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create label dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat label file: %w", err)
	}

	if info.Size() == 0 {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write(labelColumns)
		w.Flush()
		if _, err := file.Write(buf.Bytes()); err != nil {
			file.Close()
			return nil, fmt.Errorf("write label header: %w", err)
		}
	}

	return &CSVLabelStore{path: path, file: file}, nil
}

// Path возвращает путь к файлу меток
func (s *CSVLabelStore) Path() string {
	return s.path
}

// Append дописывает строки одной записью в файл.
func (s *CSVLabelStore) Append(ctx context.Context, rows ...entity.LabeledExample) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStoreWrite, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := checkRow(row); err != nil {
			return err
		}
		if err := w.Write(encodeRow(row)); err != nil {
			return fmt.Errorf("%w: encode row: %v", entity.ErrStoreWrite, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: encode rows: %v", entity.ErrStoreWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("%w: store is closed", entity.ErrStoreWrite)
	}
	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: append %s: %v", entity.ErrStoreWrite, s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", entity.ErrStoreWrite, s.path, err)
	}

	return nil
}

// List читает все строки файла.
func (s *CSVLabelStore) List(ctx context.Context) ([]entity.LabeledExample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(labelColumns)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []entity.LabeledExample{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	for i, col := range labelColumns {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected label header column %d: %q", i, header[i])
		}
	}

	rows := make([]entity.LabeledExample, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read label row: %w", err)
		}
		row, err := decodeRow(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Close закрывает файл меток
func (s *CSVLabelStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func checkRow(row entity.LabeledExample) error {
	if row.ImageName == "" {
		return fmt.Errorf("%w: empty image name", entity.ErrValidation)
	}
	if row.DefectType == "" {
		return fmt.Errorf("%w: empty defect type", entity.ErrValidation)
	}
	return nil
}

func encodeRow(row entity.LabeledExample) []string {
	if row.Box == nil {
		return []string{row.ImageName, "", "", "", "", row.DefectType}
	}
	return []string{
		row.ImageName,
		formatCoord(row.Box.X),
		formatCoord(row.Box.Y),
		formatCoord(row.Box.Width),
		formatCoord(row.Box.Height),
		row.DefectType,
	}
}

func decodeRow(record []string) (entity.LabeledExample, error) {
	row := entity.LabeledExample{ImageName: record[0], DefectType: record[5]}

	geometry := record[1:5]
	empty := 0
	for _, v := range geometry {
		if v == "" {
			empty++
		}
	}
	switch empty {
	case len(geometry):
		return row, nil
	case 0:
	default:
		return row, fmt.Errorf("label row for %s has partial geometry", row.ImageName)
	}

	var vals [4]float64
	for i, v := range geometry {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return row, fmt.Errorf("label row for %s: parse %s: %w", row.ImageName, labelColumns[i+1], err)
		}
		vals[i] = f
	}
	row.Box = &entity.Box{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}

	return row, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Проверка реализации интерфейса
var _ port.LabelStore = (*CSVLabelStore)(nil)
