package router

import (
	"regexp"
	"strings"
)

// Fast-path rule names.
const (
	RuleCreator  = "creator"
	RuleGreeting = "greeting"
	RuleCorpus   = "corpus"
	RuleNews     = "news"
	RuleTicker   = "ticker"
	RuleCalc     = "calc"
	RuleEmail    = "email"
)

// RE2 \b only knows ASCII, so accented words get explicit letter boundaries.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

type rule struct {
	name    string
	action  Action
	pattern *regexp.Regexp
}

func words(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(wordStart + `(?:` + alternatives + `)` + wordEnd)
}

// rules are tried in order against the lowercased input; first match wins.
// Creator is checked before greeting so "hello, who created you?" keeps the
// creator rule; both route to smalltalk.
var rules = []rule{
	{RuleCreator, ActionSmalltalk, words(`qui\s*t['’]?\s*a\s*cr[ée]{2}|ton\s*cr[ée]ateur|cr[ée]{2}\s*par\s*qui|who\s+(?:created|made|built)\s+you|who\s+is\s+your\s+creator|your\s+creator`)},
	{RuleGreeting, ActionSmalltalk, regexp.MustCompile(`^\s*(?:bonjour|bonsoir|salut|hello|hi|hey)` + wordEnd)},
	{RuleCorpus, ActionRAG, words(`selon\s+(?:le|la|les|mes)\s+(?:rapports?|documents?|docs)|dans\s+mes\s+(?:docs|documents)|according\s+to\s+(?:the|my)\s+(?:reports?|documents?|docs|filings?)|in\s+my\s+(?:docs|documents|reports)|corpus`)},
	{RuleNews, ActionWeb, words(`actu|actualités?|news|dernières\s+nouvelles|latest\s+news|headlines?`)},
	{RuleTicker, ActionStock, words(`pe|p/e|close\s+[a-z]{1,6}|ticker`)},
	{RuleCalc, ActionCalc, regexp.MustCompile(wordStart + `(?:cagr|cag|rendement|roi|npv|van|irr|calcul\w*)` + wordEnd + `|%`)},
	{RuleEmail, ActionEmail, words(`e-?mail|mail|courriel|envoie(?:r)?\s+un\s+(?:mail|email)|écris\s+un\s+mail|rédige\s+un\s+mail`)},
}

// FastPath applies the ordered rule list. ok is false when no rule matches.
func FastPath(text string) (action Action, ruleName string, ok bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.action, r.name, true
		}
	}
	return "", "", false
}
