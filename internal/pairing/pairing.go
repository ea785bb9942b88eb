// Package pairing は色系統ごとのスタイル組み合わせ表を引く。
package pairing

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embedded []byte

// ある色系統に合わせる色
type Recommendation struct {
	ColorFamily   string   `yaml:"-" json:"color_family"`
	Label         string   `yaml:"-" json:"label"`
	Palette       string   `yaml:"palette" json:"palette"`
	Shirts        []string `yaml:"shirts" json:"shirts"`
	Ties          []string `yaml:"ties" json:"ties"`
	PocketSquares []string `yaml:"pocket_squares" json:"pocket_squares"`
	Notes         string   `yaml:"notes" json:"notes"`
}

// 商品に保存するスマート属性
type SmartAttributes struct {
	ColorFamily     string   `json:"color_family,omitempty"`
	Formality       string   `json:"formality,omitempty"`
	Palette         string   `json:"palette,omitempty"`
	PairsWithShirts []string `json:"pairs_with_shirts,omitempty"`
	PairsWithTies   []string `json:"pairs_with_ties,omitempty"`
	PocketSquares   []string `json:"pocket_squares,omitempty"`
}

type Table struct {
	Version   int                       `yaml:"version"`
	Formality map[string]string         `yaml:"formality"`
	Families  map[string]Recommendation `yaml:"families"`
}

var (
	lower = cases.Lower(language.Und)
	title = cases.Title(language.English)
)

// 色系統のキーをそろえる（"Light Blue" → "light-blue"）
func NormalizeColor(s string) string {
	s = lower.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// 表示用のラベル（"light-blue" → "Light Blue"）
func Label(family string) string {
	return title.String(strings.ReplaceAll(NormalizeColor(family), "-", " "))
}

// Parse はYAMLの組み合わせ表を読む。
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse pairing tables: %w", err)
	}
	if len(t.Families) == 0 {
		return nil, fmt.Errorf("pairing tables have no families")
	}

	families := make(map[string]Recommendation, len(t.Families))
	for k, rec := range t.Families {
		key := NormalizeColor(k)
		rec.ColorFamily = key
		rec.Label = Label(key)
		families[key] = rec
	}
	t.Families = families

	formality := make(map[string]string, len(t.Formality))
	for k, v := range t.Formality {
		formality[lower.String(strings.TrimSpace(k))] = v
	}
	t.Formality = formality

	return &t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default は組み込みの表を返す。
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

func (t *Table) Lookup(colorFamily string) (Recommendation, bool) {
	rec, ok := t.Families[NormalizeColor(colorFamily)]
	return rec, ok
}

// 登録済みの色系統（昇順）
func (t *Table) ColorFamilies() []string {
	out := make([]string, 0, len(t.Families))
	for k := range t.Families {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SmartAttributesFor はカテゴリと色系統から属性を作る。
// 表に無い色系統でも格式と色系統だけは入る。
func (t *Table) SmartAttributesFor(category, colorFamily string) SmartAttributes {
	family := NormalizeColor(colorFamily)
	attrs := SmartAttributes{
		ColorFamily: family,
		Formality:   t.Formality[lower.String(strings.TrimSpace(category))],
	}
	rec, ok := t.Families[family]
	if !ok {
		return attrs
	}
	attrs.Palette = rec.Palette
	attrs.PairsWithShirts = rec.Shirts
	attrs.PairsWithTies = rec.Ties
	attrs.PocketSquares = rec.PocketSquares
	return attrs
}

// GarmentsForTie はそのタイ色を推している色系統を返す（昇順）。
func (t *Table) GarmentsForTie(tieColor string) []string {
	tie := NormalizeColor(tieColor)
	out := []string{}
	for _, family := range t.ColorFamilies() {
		for _, c := range t.Families[family].Ties {
			if NormalizeColor(c) == tie {
				out = append(out, family)
				break
			}
		}
	}
	return out
}
