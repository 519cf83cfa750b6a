package taxonomy

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/nudge/fs"
)

// DefaultFile is the embedded Citizen Maths taxonomy.
const DefaultFile = "taxonomy/citizen_maths.yaml"

// Error is returned when a taxonomy breaks one of the Index invariants.
type Error struct {
	msg string
}

func newError(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func (e Error) Error() string { return "taxonomy: " + e.msg }

type file struct {
	Course                string `yaml:"course"`
	CulminatingAssessment int    `yaml:"culminatingAssessment"`
	Units                 []Unit `yaml:"units"`
	Ideas                 []Idea `yaml:"ideas"`
}

// Load parses a YAML taxonomy.
func Load(r io.Reader) (*Index, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decoding taxonomy")
	}
	return New(f.Course, f.CulminatingAssessment, f.Units, f.Ideas)
}

// LoadFile parses the YAML taxonomy at path in fsys.
func LoadFile(fsys fs.FS, path string) (*Index, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening taxonomy")
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Default loads the embedded Citizen Maths taxonomy.
func Default() (*Index, error) {
	return LoadFile(appfs.FS, DefaultFile)
}
