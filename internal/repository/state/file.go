package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// Repository defines persistence operations for the last active machine.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// Record is the last successful switch.
type Record struct {
	// Timestamp is when the switch happened.
	Timestamp time.Time
	// Input is the monitor input name that was selected.
	Input string
	// Machine is the machine the monitor was switched to.
	Machine machine.ID
}

// FileRepository persists the record to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the state file does not exist yet.
	ErrNotFound = errors.New("state not found")
	// errMalformed is returned when a stored record misses required fields.
	errMalformed = errors.New("malformed state record")
)

// Field names shared by the file format and the control API.
const (
	FieldMachine   = "machine"
	FieldInput     = "input"
	FieldTimestamp = "timestamp"
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return FromStruct(&message)
}

// Save writes the record to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := ToStruct(record)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// ToStruct converts a record to its protobuf form.
func ToStruct(record *Record) (*structpb.Struct, error) {
	if record == nil {
		return nil, errMalformed
	}

	fields := map[string]any{
		FieldMachine: record.Machine.String(),
		FieldInput:   record.Input,
	}

	if !record.Timestamp.IsZero() {
		fields[FieldTimestamp] = record.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	message, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build state message: %w", err)
	}

	return message, nil
}

// FromStruct converts the protobuf form back to a record.
func FromStruct(message *structpb.Struct) (*Record, error) {
	fields := message.GetFields()

	id, err := machine.Parse(fields[FieldMachine].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	record := &Record{
		Machine: id,
		Input:   fields[FieldInput].GetStringValue(),
	}

	if raw := fields[FieldTimestamp].GetStringValue(); raw != "" {
		record.Timestamp, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %w", errMalformed, err)
		}
	}

	return record, nil
}
