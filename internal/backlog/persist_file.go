package backlog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

type codec struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var (
	jsonCodec = codec{
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	}
	yamlCodec = codec{
		marshal:   func(v any) ([]byte, error) { return yaml.Marshal(v) },
		unmarshal: func(data []byte, v any) error { return yaml.Unmarshal(data, v) },
	}
)

// FilePersister stores the backlog as a JSON or YAML document, picked by extension.
type FilePersister struct {
	fs    afero.Fs
	path  string
	codec codec
}

func NewFilePersister(fs afero.Fs, path string) *FilePersister {
	c := jsonCodec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c = yamlCodec
	}
	return &FilePersister{fs: fs, path: path, codec: c}
}

func (p *FilePersister) Path() string { return p.path }

func (p *FilePersister) Load(ctx context.Context) ([]domain.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(p.fs, p.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var records []record
	if err := p.codec.unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.path, err)
	}
	features, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.path, err)
	}
	return features, nil
}

// Save writes to a temp file first so readers never see a partial document.
func (p *FilePersister) Save(ctx context.Context, features []domain.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := p.codec.marshal(toRecords(features))
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.path, err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	tmp := p.path + ".tmp"
	if err := afero.WriteFile(p.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := p.fs.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
