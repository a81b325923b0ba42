package analysis

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/classify"
)

// ProposalSpec is a named grouping predicate written in CEL. The expression
// sees these variables:
//
//	level      string        level code, e.g. "1"
//	field      string        field code, e.g. "G01"
//	pattern    string        level + field
//	label      string        rule-table label of the field code
//	name       string        organization display name
//	university string        university display name
//	keywords   list(string)  labels matched by name keywords
type ProposalSpec struct {
	Name        string `yaml:"name" json:"name"`
	Expr        string `yaml:"expr" json:"expr"`
	Description string `yaml:"description" json:"description"`
}

// DefaultProposals are the engineering and informatics groupings by level.
var DefaultProposals = []ProposalSpec{
	{
		Name:        "工学部（学部レベル）",
		Expr:        `"engineering" in keywords && pattern.startsWith("1G")`,
		Description: "学部段階の工学系教育組織",
	},
	{
		Name:        "工学研究科（修士レベル）",
		Expr:        `"engineering" in keywords && pattern.startsWith("2G")`,
		Description: "修士課程の工学系研究組織",
	},
	{
		Name:        "工学研究科（博士レベル）",
		Expr:        `"engineering" in keywords && pattern.startsWith("4G")`,
		Description: "博士課程の工学系研究組織",
	},
	{
		Name:        "情報系（修士レベル）",
		Expr:        `level == "2" && field.startsWith("Y")`,
		Description: "修士課程の情報系研究組織",
	},
	{
		Name:        "情報系（博士レベル）",
		Expr:        `level == "4" && field.startsWith("Y")`,
		Description: "博士課程の情報系研究組織",
	},
}

// Proposal is a compiled ProposalSpec.
type Proposal struct {
	ProposalSpec
	program cel.Program
}

// ProposalResult lists the records a proposal selects.
type ProposalResult struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Expr         string   `json:"expr"`
	Matches      int      `json:"matches"`
	Universities []string `json:"universities"`
	Names        []string `json:"names"`
}

func proposalEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("level", cel.StringType),
		cel.Variable("field", cel.StringType),
		cel.Variable("pattern", cel.StringType),
		cel.Variable("label", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("university", cel.StringType),
		cel.Variable("keywords", cel.ListType(cel.StringType)),
	)
}

// CompileProposals compiles every spec. An expression that does not compile
// or is not boolean fails with VALIDATION_ERROR naming the proposal.
func CompileProposals(specs []ProposalSpec) ([]Proposal, error) {
	env, err := proposalEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	out := make([]Proposal, 0, len(specs))
	for _, spec := range specs {
		ast, iss := env.Compile(spec.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, apperror.NewValidation("invalid proposal expression").
				WithDetail("proposal", spec.Name).
				WithCause(iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, apperror.NewValidation("proposal expression must be boolean").
				WithDetail("proposal", spec.Name).
				WithDetail("type", ast.OutputType().String())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", spec.Name, err)
		}
		out = append(out, Proposal{ProposalSpec: spec, program: prg})
	}
	return out, nil
}

// Match evaluates the proposal against one record.
func (p Proposal) Match(c *classify.Classifier, r classify.Record) (bool, error) {
	keywords := c.FieldsByName(r.Name)
	if keywords == nil {
		keywords = []string{}
	}
	out, _, err := p.program.Eval(map[string]any{
		"level":      string(r.Classification.Level),
		"field":      r.Classification.FieldCode,
		"pattern":    r.Classification.Pattern(),
		"label":      r.Classification.FieldLabel,
		"name":       r.Name,
		"university": r.University,
		"keywords":   keywords,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.Name, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: non-boolean result %T", p.Name, out.Value())
	}
	return matched, nil
}

// Evaluate applies the proposal to every record.
func (p Proposal) Evaluate(c *classify.Classifier, records []classify.Record) (ProposalResult, error) {
	res := ProposalResult{Name: p.Name, Description: p.Description, Expr: p.Expr}
	var matched []classify.Record
	for _, r := range records {
		ok, err := p.Match(c, r)
		if err != nil {
			return ProposalResult{}, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	res.Matches = len(matched)
	seen := make(map[string]struct{})
	for _, r := range matched {
		if _, dup := seen[r.University]; !dup {
			seen[r.University] = struct{}{}
			res.Universities = append(res.Universities, r.University)
		}
	}
	for _, r := range matched {
		res.Names = append(res.Names, r.Name+"（"+r.University+"）")
	}
	return res, nil
}
