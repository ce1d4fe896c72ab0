package extract

import (
	"fmt"
	"regexp"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Template is the compiled form of an entity.FieldTemplate. Compilation is
// the construction-time gate: a malformed template (rule without patterns,
// bad regex, out-of-range capture group) fails here and never depends on the
// content of a specific document.
type Template struct {
	Key   string
	rules []compiledRule
	block *compiledBlock
	// blockFn is resolved from the registry when the template names a
	// custom block scanner instead of a declarative BlockRule.
	blockFn BlockFunc
}

type compiledRule struct {
	def      entity.FieldRule
	patterns []*regexp.Regexp
	group    int
	policy   constants.SelectPolicy
}

type compiledBlock struct {
	def          entity.BlockRule
	anchor       *regexp.Regexp
	amount       *regexp.Regexp
	nameIdx      int
	phoneIdx     int
	amountPolicy constants.SelectPolicy
}

// NewTemplate compiles a declarative template definition.
func NewTemplate(def entity.FieldTemplate) (*Template, error) {
	if def.Key == "" {
		return nil, templateErr("template key is required")
	}
	if len(def.Rules) == 0 {
		return nil, templateErr("template %q has no field rules", def.Key)
	}
	if def.Block != nil && def.BlockFunc != "" {
		return nil, templateErr("template %q sets both block and block_func", def.Key)
	}

	t := &Template{Key: def.Key}
	seen := make(map[string]bool, len(def.Rules))
	for _, r := range def.Rules {
		cr, err := compileRule(def.Key, r)
		if err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, templateErr("template %q declares field %q twice", def.Key, r.Name)
		}
		seen[r.Name] = true
		t.rules = append(t.rules, cr)
	}

	if def.Block != nil {
		cb, err := compileBlock(def.Key, *def.Block)
		if err != nil {
			return nil, err
		}
		t.block = cb
	}
	return t, nil
}

func compileRule(tmplKey string, def entity.FieldRule) (compiledRule, error) {
	if def.Name == "" {
		return compiledRule{}, templateErr("template %q has a rule with no field name", tmplKey)
	}
	if len(def.Patterns) == 0 {
		// A rule with no patterns at all is a programmer error, caught here.
		return compiledRule{}, templateErr("field %q in template %q has no patterns", def.Name, tmplKey)
	}
	switch def.Type {
	case constants.FieldTypeDate, constants.FieldTypeAmount, constants.FieldTypeIdentifier, constants.FieldTypeText:
	default:
		return compiledRule{}, templateErr("field %q in template %q has unknown type %q", def.Name, tmplKey, def.Type)
	}

	group := def.Group
	if group == 0 {
		group = 1
	}

	policy := def.Select
	if policy == "" {
		// Repeated totals supersede earlier figures; everything else is
		// expected to be stable across restatements.
		if def.Type == constants.FieldTypeAmount {
			policy = constants.SelectLast
		} else {
			policy = constants.SelectFirst
		}
	}
	switch policy {
	case constants.SelectFirst, constants.SelectLast:
	case constants.SelectHighest:
		if def.Type != constants.FieldTypeAmount {
			return compiledRule{}, templateErr("field %q in template %q: HIGHEST applies to AMOUNT fields only", def.Name, tmplKey)
		}
	default:
		return compiledRule{}, templateErr("field %q in template %q has unknown select policy %q", def.Name, tmplKey, policy)
	}

	patterns := make([]*regexp.Regexp, 0, len(def.Patterns))
	for _, pat := range def.Patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return compiledRule{}, templateErr("field %q in template %q: invalid pattern %q: %v", def.Name, tmplKey, pat, err)
		}
		if re.NumSubexp() < group {
			return compiledRule{}, templateErr("field %q in template %q: pattern %q has no capture group %d", def.Name, tmplKey, pat, group)
		}
		patterns = append(patterns, re)
	}
	return compiledRule{def: def, patterns: patterns, group: group, policy: policy}, nil
}

func compileBlock(tmplKey string, def entity.BlockRule) (*compiledBlock, error) {
	anchor, err := regexp.Compile(def.Anchor)
	if err != nil {
		return nil, templateErr("template %q: invalid block anchor %q: %v", tmplKey, def.Anchor, err)
	}
	nameIdx, phoneIdx := -1, -1
	for i, n := range anchor.SubexpNames() {
		switch n {
		case "name":
			nameIdx = i
		case "phone":
			phoneIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, templateErr("template %q: block anchor must define a (?P<name>...) group", tmplKey)
	}

	amount, err := regexp.Compile(def.AmountPattern)
	if err != nil {
		return nil, templateErr("template %q: invalid block amount pattern %q: %v", tmplKey, def.AmountPattern, err)
	}
	if amount.NumSubexp() < 1 {
		return nil, templateErr("template %q: block amount pattern must capture the amount in group 1", tmplKey)
	}

	policy := def.AmountSelect
	if policy == "" {
		policy = constants.SelectLast
	}
	switch policy {
	case constants.SelectFirst, constants.SelectLast, constants.SelectHighest:
	default:
		return nil, templateErr("template %q: unknown block amount select policy %q", tmplKey, policy)
	}
	return &compiledBlock{def: def, anchor: anchor, amount: amount, nameIdx: nameIdx, phoneIdx: phoneIdx, amountPolicy: policy}, nil
}

func templateErr(format string, args ...any) error {
	return common.NewAppError("TEMPLATE_ERROR", fmt.Sprintf(format, args...), common.ErrInvalidInput)
}
