package rules

// File is the YAML shape of a rule file.
type File struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Rules       []RuleSpec `yaml:"rules"`
}

// RuleSpec is one declarative rule. A rule either rewrites the module
// reference of an import statement (match.module + rewrite.module) or
// its imported names (match.names + rewrite.name), never both.
type RuleSpec struct {
	Name    string      `yaml:"name"`
	Node    string      `yaml:"node"`
	Match   MatchSpec   `yaml:"match"`
	Rewrite RewriteSpec `yaml:"rewrite"`
}

// MatchSpec selects the statements a rule fires on.
//
// Module patterns are dotted component lists. A leading `*` component
// stands for one or more arbitrary prefix components, so
// `*.operators.bash` matches `airflow.operators.bash` but not
// `operators.bash`. Without the wildcard the pattern is an exact
// match.
//
// Names lists plain imported identifiers.
type MatchSpec struct {
	Module []string `yaml:"module"`
	Names  []string `yaml:"names"`
}

// RewriteSpec is the replacement side of a rule.
type RewriteSpec struct {
	Module string `yaml:"module"`
	Name   string `yaml:"name"`
}
