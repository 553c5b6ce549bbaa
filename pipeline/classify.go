package pipeline

import "strings"

// Classification is keyword containment over lower-cased text, evaluated as
// ordered decision tables. Rule order is part of the contract: several rules
// may match the same text and the first one wins. Everything here is a pure
// function of its inputs so re-runs label identically.

type keywordRule struct {
	keywords []string
	label    string
}

var severityRules = []keywordRule{
	{[]string{"ignore all", "override", "system:", "bypass", "disable"}, SeverityCritical},
	{[]string{"jailbreak", "unrestricted", "harmful", "dangerous", "critical", "severe"}, SeverityHigh},
	{[]string{"roleplay", "pretend", "hypothetical", "scenario"}, SeverityMedium},
	{[]string{"low"}, SeverityLow},
}

var promptTypeRules = []keywordRule{
	{[]string{"dan", "do anything now"}, "role_play"},
	{[]string{"ignore", "override"}, "instruction_override"},
	{[]string{"pretend", "roleplay"}, "character_roleplay"},
	{[]string{"hypothetical", "alternate"}, "hypothetical"},
	{[]string{"research", "academic"}, "authority_manipulation"},
	{[]string{"developer mode", "admin"}, "mode_switching"},
}

var exploitTypeRules = []keywordRule{
	{[]string{"jailbreak", "dan"}, "jailbreak"},
	{[]string{"injection"}, "injection"},
	{[]string{"bypass"}, "bypass"},
	{[]string{"override"}, "override"},
	{[]string{"extraction", "leak"}, "extraction"},
	{[]string{"obfuscation", "encoding"}, "obfuscation"},
}

// Titles carrying any of these read as shared techniques rather than
// discussion threads.
var jailbreakTitleWords = []string{"jailbreak", "prompt", "dan", "bypass", "works", "new"}

// Subcategory labels normalized at acceptance time.
var promptTypeAliases = map[string]string{
	"character_roleplay": "role_play",
}

func matchRules(rules []keywordRule, text, fallback string) string {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	return fallback
}

// ClassifySeverity labels how aggressive a prompt or exploit reads.
func ClassifySeverity(title, body string) string {
	return matchRules(severityRules, strings.ToLower(title+" "+body), SeverityMedium)
}

// ClassifyPromptType labels the manipulation technique of a forum prompt.
func ClassifyPromptType(title, body string) string {
	return matchRules(promptTypeRules, strings.ToLower(title+" "+body), "general")
}

// ClassifyExploitType labels an AI-search finding from its title alone; the
// body carries no independent categorization signal for this source.
func ClassifyExploitType(title string) string {
	return matchRules(exploitTypeRules, strings.ToLower(title), "unknown")
}

// PromptCategory separates shared jailbreak techniques from discussion posts.
func PromptCategory(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range jailbreakTitleWords {
		if strings.Contains(lower, kw) {
			return "jailbreak"
		}
	}
	return "discussion"
}

func aliasPromptType(t string) string {
	if alias, ok := promptTypeAliases[t]; ok {
		return alias
	}
	return t
}
