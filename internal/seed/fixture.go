// Package seed loads a YAML description of one project tree into the database
// and object store, for local development and end-to-end tests.
package seed

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"nodestore/internal/config"
	models "nodestore/internal/domain/models/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

var nodeNamePattern = regexp.MustCompile(`^[^/]+$`)

// Fixture is the root of a seed file
type Fixture struct {
	Project ProjectFixture  `yaml:"project"`
	Members []MemberFixture `yaml:"members"`
	Nodes   []NodeFixture   `yaml:"nodes"`
}

type ProjectFixture struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Public  bool   `yaml:"public"`
	OwnerID string `yaml:"owner_id"`
}

type MemberFixture struct {
	UserID string            `yaml:"user_id"`
	Role   models.MemberRole `yaml:"role"`
}

// NodeFixture describes one node. Type defaults to folder when Children is
// non-empty and to file otherwise.
type NodeFixture struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Type       models.NodeType `yaml:"type"`
	Public     bool            `yaml:"public"`
	AccessRole string          `yaml:"access_role"` // empty leaves the column NULL
	Text       string          `yaml:"text"`
	Object     *ObjectFixture  `yaml:"object"`
	Children   []NodeFixture   `yaml:"children"`
}

// ObjectFixture is file content written to the object store
type ObjectFixture struct {
	ContentType string `yaml:"content_type"`
	Body        string `yaml:"body"`
	// Legacy stores the object under the name-derived key and leaves the
	// content row empty, as older uploads did.
	Legacy bool `yaml:"legacy"`
}

// ParseFixture decodes and validates a seed file. Unknown keys are rejected.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty fixture")
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

func (f *Fixture) applyDefaults() {
	for i := range f.Members {
		if f.Members[i].Role == "" {
			f.Members[i].Role = models.MemberRoleEditor
		}
	}
	setNodeTypes(f.Nodes)
}

func setNodeTypes(nodes []NodeFixture) {
	for i := range nodes {
		n := &nodes[i]
		if n.Type == "" {
			if len(n.Children) > 0 {
				n.Type = models.NodeTypeFolder
			} else {
				n.Type = models.NodeTypeFile
			}
		}
		setNodeTypes(n.Children)
	}
}

// Validate checks the whole tree
func (f *Fixture) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Project),
		validation.Field(&f.Members),
		validation.Field(&f.Nodes),
	)
}

func (p ProjectFixture) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, config.MaxNodeNameLength)),
	)
}

func (m MemberFixture) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.UserID, validation.Required),
		validation.Field(&m.Role, validation.In(models.MemberRoleOwner, models.MemberRoleEditor, models.MemberRoleViewer)),
	)
}

func (n NodeFixture) Validate() error {
	isFolder := n.Type == models.NodeTypeFolder
	return validation.ValidateStruct(&n,
		validation.Field(&n.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nodeNamePattern).Error("must not contain '/'"),
		),
		validation.Field(&n.Type, validation.In(models.NodeTypeFile, models.NodeTypeFolder)),
		validation.Field(&n.AccessRole, validation.In(string(models.AccessRoleViewer), string(models.AccessRoleEditor))),
		validation.Field(&n.Text, validation.When(isFolder, validation.Empty.Error("folders cannot have text"))),
		validation.Field(&n.Object, validation.When(isFolder, validation.Nil.Error("folders cannot have an object"))),
		validation.Field(&n.Children,
			validation.When(!isFolder, validation.Empty.Error("files cannot have children")),
		),
	)
}
