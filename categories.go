package detds

// The category table maps zero-based class ids to names and display colors.

import (
	"fmt"
	"image/color"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Category is a single object class.
type Category struct {
	Name  string
	Color color.RGBA
}

// CategoryTable is the ordered list of object classes. The class id is the index into
// Categories.
type CategoryTable struct {
	Categories []Category
}

// DefaultCategories returns the 10-class table the dataset ships with.
func DefaultCategories() CategoryTable {
	return CategoryTable{Categories: []Category{
		{"person", color.RGBA{255, 107, 107, 255}},
		{"car", color.RGBA{78, 205, 196, 255}},
		{"dog", color.RGBA{255, 230, 109, 255}},
		{"cat", color.RGBA{168, 230, 207, 255}},
		{"bicycle", color.RGBA{221, 160, 221, 255}},
		{"motorcycle", color.RGBA{152, 216, 200, 255}},
		{"bus", color.RGBA{247, 220, 111, 255}},
		{"truck", color.RGBA{133, 193, 233, 255}},
		{"bird", color.RGBA{245, 183, 177, 255}},
		{"chair", color.RGBA{215, 189, 226, 255}},
	}}
}

// Len is the number of classes in the table.
func (t CategoryTable) Len() int {
	return len(t.Categories)
}

// Name returns the class name for id and whether id is within the table.
func (t CategoryTable) Name(id int) (string, bool) {
	if id < 0 || id >= len(t.Categories) {
		return "", false
	}
	return t.Categories[id].Name, true
}

// Label is the display text for id. Ids outside the table get a synthesized "class_<id>" label.
func (t CategoryTable) Label(id int) string {
	if name, ok := t.Name(id); ok {
		return name
	}
	return fmt.Sprintf("class_%d", id)
}

// Color returns the display color for id, wrapping around the table so that every id gets a
// deterministic color. An empty table yields white.
func (t CategoryTable) Color(id int) color.RGBA {
	n := len(t.Categories)
	if n == 0 {
		return color.RGBA{255, 255, 255, 255}
	}
	i := id % n
	if i < 0 {
		i += n
	}
	return t.Categories[i].Color
}

// Names returns the class names in id order.
func (t CategoryTable) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// yamlCategories is the on-disk layout of a category file.
type yamlCategories struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Color []int  `yaml:"color"`
	} `yaml:"categories"`
}

// ParseCategories decodes a YAML category table. Each entry needs a name and an RGB triple.
func ParseCategories(data []byte) (CategoryTable, error) {
	var raw yamlCategories
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return CategoryTable{}, errors.Wrap(err, "invalid category YAML")
	}
	if len(raw.Categories) == 0 {
		return CategoryTable{}, errors.New("no categories defined")
	}

	table := CategoryTable{Categories: make([]Category, 0, len(raw.Categories))}
	for i, c := range raw.Categories {
		if c.Name == "" {
			return CategoryTable{}, errors.Errorf("category %d has no name", i)
		}
		if len(c.Color) != 3 {
			return CategoryTable{}, errors.Errorf("category %q: color must be an RGB triple", c.Name)
		}
		var rgb [3]uint8
		for j, v := range c.Color {
			if v < 0 || v > 255 {
				return CategoryTable{}, errors.Errorf("category %q: color value %d out of range", c.Name, v)
			}
			rgb[j] = uint8(v)
		}
		table.Categories = append(table.Categories,
			Category{Name: c.Name, Color: color.RGBA{rgb[0], rgb[1], rgb[2], 255}})
	}

	return table, nil
}

// LoadCategories reads a YAML category table from path.
func LoadCategories(path string) (CategoryTable, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return CategoryTable{}, errors.Wrapf(err, "cannot read category file %q", path)
	}
	table, err := ParseCategories(data)
	if err != nil {
		return CategoryTable{}, errors.Wrapf(err, "category file %q", path)
	}
	return table, nil
}
