package progress

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCurriculumYAML []byte

var validate = validator.New()

// Curriculum is the template used whenever a week has no stored structure or rewards.
type Curriculum struct {
	Categories         []Category `yaml:"categories" validate:"required,min=1,unique=ID,dive"`
	InitialRewards     Rewards    `yaml:"initial_rewards"`
	PlaceholderRewards Rewards    `yaml:"placeholder_rewards"`
}

// structureDoc lets the validator walk a bare category slice.
type structureDoc struct {
	Categories []Category `validate:"unique=ID,dive"`
}

var loadDefault = sync.OnceValues(func() (Curriculum, error) {
	return ParseCurriculum(defaultCurriculumYAML)
})

// DefaultCurriculum returns the embedded template. It panics if the embedded file is broken,
// which can only happen at build time.
func DefaultCurriculum() Curriculum {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Errorf("embedded curriculum: %w", err))
	}
	return c.clone()
}

// LoadCurriculumFile reads a YAML curriculum from path.
func LoadCurriculumFile(path string) (Curriculum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Curriculum{}, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Curriculum{}, fmt.Errorf("read curriculum: %w", err)
	}
	return ParseCurriculum(data)
}

// ParseCurriculum decodes and validates a YAML curriculum.
func ParseCurriculum(data []byte) (Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Curriculum{}, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return Curriculum{}, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	if err := checkItemIDs(c.Categories); err != nil {
		return Curriculum{}, err
	}
	return c, nil
}

func (c Curriculum) clone() Curriculum {
	c.Categories = cloneStructure(c.Categories)
	return c
}

// ActiveStructure returns the structure in effect for doc.
func (c Curriculum) ActiveStructure(doc WeekDocument) []Category {
	if doc.Structure == nil {
		return c.Categories
	}
	return doc.Structure
}

// ActiveRewards returns the three reward candidates in effect. A week without a document gets
// the initial rewards; a stored week without rewards, or with fewer than three, is filled from
// the placeholders. Extra entries are ignored.
func (c Curriculum) ActiveRewards(doc WeekDocument, exists bool) Rewards {
	if !exists {
		return c.InitialRewards
	}
	rewards := c.PlaceholderRewards
	for i := 0; i < len(doc.Rewards) && i < RewardSlots; i++ {
		rewards[i] = doc.Rewards[i]
	}
	return rewards
}

// SanitizeStructure returns a deep copy of structure with negative totals coerced to 0,
// and rejects structures whose ids are missing or duplicated.
func SanitizeStructure(structure []Category) ([]Category, error) {
	out := cloneStructure(structure)
	if out == nil {
		out = []Category{}
	}
	for i := range out {
		if out[i].Items == nil {
			out[i].Items = []Item{}
		}
		for j := range out[i].Items {
			if out[i].Items[j].Total < 0 {
				out[i].Items[j].Total = 0
			}
		}
	}

	if err := validate.Struct(structureDoc{Categories: out}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	if err := checkItemIDs(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkItemIDs enforces item id uniqueness across categories.
func checkItemIDs(structure []Category) error {
	seen := make(map[string]string)
	for _, cat := range structure {
		for _, item := range cat.Items {
			if owner, ok := seen[item.ID]; ok {
				return fmt.Errorf("%w: item %q appears in %s and %s", ErrInvalidStructure, item.ID, owner, cat.ID)
			}
			seen[item.ID] = cat.ID
		}
	}
	return nil
}
